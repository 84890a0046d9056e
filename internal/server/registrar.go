package server

import "google.golang.org/grpc"

// Registrar attaches one service to the gRPC server. ServiceName is the
// fully qualified name reported by the health service.
type Registrar interface {
	ServiceName() string
	Register(s grpc.ServiceRegistrar)
}
