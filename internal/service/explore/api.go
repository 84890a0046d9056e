package explore

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/songmatch/internal/server"
)

// Messages of songmatch.explore.v1.ExploreService. They travel as JSON
// through server.Codec.

type GetFeedRequest struct {
	ViewerUserID string `json:"viewer_user_id"`
}

type Song struct {
	Title      string   `json:"title"`
	Artist     string   `json:"artist"`
	Album      string   `json:"album,omitempty"`
	CoverURL   string   `json:"cover_url,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	ExternalID string   `json:"external_id,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

type FeedItem struct {
	PostID        string   `json:"post_id"`
	AuthorUserID  string   `json:"author_user_id"`
	AuthorName    string   `json:"author_name"`
	AuthorPhoto   string   `json:"author_photo_url,omitempty"`
	Song          Song     `json:"song"`
	Mood          string   `json:"mood"`
	MoodTags      []string `json:"mood_tags,omitempty"`
	Score         float64  `json:"score"`
	UnixTimestamp uint64   `json:"unix_timestamp"`
}

type GetFeedResponse struct {
	Items []FeedItem `json:"items"`
}

type RecordSwipeRequest struct {
	SwiperUserID string `json:"swiper_user_id"`
	PostID       string `json:"post_id"`
	// Direction is accept/reject (right/left and like/pass are accepted too).
	Direction string `json:"direction"`
}

type Participant struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

type Match struct {
	MatchID       string        `json:"match_id"`
	UserIDs       []string      `json:"user_ids"`
	Participants  []Participant `json:"participants"`
	IsActive      bool          `json:"is_active"`
	UnixTimestamp uint64        `json:"unix_timestamp"`
}

type RecordSwipeResponse struct {
	Matched bool   `json:"matched"`
	Match   *Match `json:"match,omitempty"`
}

type ListMatchesRequest struct {
	UserID          string  `json:"user_id"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int     `json:"limit,omitempty"`
}

type ListMatchesResponse struct {
	Matches             []Match `json:"matches"`
	NextPaginationToken *string `json:"next_pagination_token,omitempty"`
}

type GetWindowRequest struct {
	UserID string `json:"user_id"`
}

type GetWindowResponse struct {
	WindowStartUnix     int64 `json:"window_start_unix"`
	NextWindowStartUnix int64 `json:"next_window_start_unix"`
	HasPosted           bool  `json:"has_posted"`
}

const serviceName = "songmatch.explore.v1.ExploreService"

const (
	GetFeedFullMethodName     = "/" + serviceName + "/GetFeed"
	RecordSwipeFullMethodName = "/" + serviceName + "/RecordSwipe"
	ListMatchesFullMethodName = "/" + serviceName + "/ListMatches"
	GetWindowFullMethodName   = "/" + serviceName + "/GetWindow"
)

// ExploreServiceServer is the server API of the explore service.
type ExploreServiceServer interface {
	GetFeed(context.Context, *GetFeedRequest) (*GetFeedResponse, error)
	RecordSwipe(context.Context, *RecordSwipeRequest) (*RecordSwipeResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	GetWindow(context.Context, *GetWindowRequest) (*GetWindowResponse, error)
}

// unary adapts a typed method to a grpc.MethodDesc, running interceptors the
// way generated code does.
func unary[Req, Resp any](name string, call func(ExploreServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ExploreServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ExploreServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes songmatch.explore.v1.ExploreService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ExploreServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetFeed", ExploreServiceServer.GetFeed),
		unary("RecordSwipe", ExploreServiceServer.RecordSwipe),
		unary("ListMatches", ExploreServiceServer.ListMatches),
		unary("GetWindow", ExploreServiceServer.GetWindow),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "songmatch/explore/v1/explore.proto",
}

// RegisterExploreServiceServer attaches srv to s.
func RegisterExploreServiceServer(s grpc.ServiceRegistrar, srv ExploreServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the explore service over a connection, always with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(server.Codec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *Client) GetFeed(ctx context.Context, in *GetFeedRequest, opts ...grpc.CallOption) (*GetFeedResponse, error) {
	out := new(GetFeedResponse)
	if err := c.invoke(ctx, GetFeedFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecordSwipe(ctx context.Context, in *RecordSwipeRequest, opts ...grpc.CallOption) (*RecordSwipeResponse, error) {
	out := new(RecordSwipeResponse)
	if err := c.invoke(ctx, RecordSwipeFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	out := new(ListMatchesResponse)
	if err := c.invoke(ctx, ListMatchesFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetWindow(ctx context.Context, in *GetWindowRequest, opts ...grpc.CallOption) (*GetWindowResponse, error) {
	out := new(GetWindowResponse)
	if err := c.invoke(ctx, GetWindowFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
