package server

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	kgrpc "github.com/go-kratos/kratos/v2/transport/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"movies/internal/conf"
)

// HealthServiceName is the service reported by the gRPC health endpoint.
const HealthServiceName = "movies.v1.Movies"

// NewGRPCServer new a gRPC server exposing the standard health service.
func NewGRPCServer(c *conf.Server, hs *health.Server, logger log.Logger) *kgrpc.Server {
	var opts = []kgrpc.ServerOption{
		kgrpc.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
		kgrpc.CustomHealth(),
	}
	if c.Grpc != nil {
		if c.Grpc.Network != "" {
			opts = append(opts, kgrpc.Network(c.Grpc.Network))
		}
		if c.Grpc.Addr != "" {
			opts = append(opts, kgrpc.Address(c.Grpc.Addr))
		}
		if c.Grpc.Timeout != nil {
			opts = append(opts, kgrpc.Timeout(c.Grpc.Timeout.AsDuration()))
		}
	}
	srv := kgrpc.NewServer(opts...)
	grpc_health_v1.RegisterHealthServer(srv, hs)
	return srv
}

// NewHealthServer reports the movie service as serving.
func NewHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(HealthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return hs
}
