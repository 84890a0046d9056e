package explore

import (
	"google.golang.org/grpc"

	"github.com/oggyb/songmatch/internal/app"
)

// Registrar ties the Explore service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Explore service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// ServiceName is the name the health service reports the Explore service under.
func (r *Registrar) ServiceName() string { return serviceName }

// Register attaches the Explore service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	RegisterExploreServiceServer(s, NewExploreService(r.appCtx))
}
