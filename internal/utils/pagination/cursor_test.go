package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/songmatch/internal/utils/pagination"
)

func TestDecode_EmptyTokenIsFirstPage(t *testing.T) {
	c, err := pagination.Decode("")
	require.NoError(t, err)
	assert.Equal(t, pagination.Cursor{}, c)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := pagination.Decode("not base64 !!")
	assert.Error(t, err)

	_, err = pagination.Decode("bm90IGpzb24=") // "not json"
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	token, err := pagination.Encode(pagination.Cursor{ID: "m-1", CreatedUnixNano: 1700000000123456789})
	require.NoError(t, err)

	c, err := pagination.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "m-1", c.ID)
	assert.Equal(t, int64(1700000000123456789), c.CreatedUnixNano)
}
