package grpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const serviceName = "grayscale_image"

// HealthServer is the gRPC surface the orchestrator probes. The upload
// API itself is HTTP (presentation/httpapi); this only answers
// liveness/readiness checks.
type HealthServer struct {
	port   int
	srv    *grpc.Server
	health *health.Server
}

func NewHealthServer(port int) *HealthServer {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthServer{port: port, srv: srv, health: hs}
}

func (s *HealthServer) Run() error {
	listen, err := net.Listen("tcp", fmt.Sprintf(":%v", s.port))
	if err != nil {
		return err
	}
	return s.srv.Serve(listen)
}

// SetReady flips the readiness answer, called once the queue consumer
// and servers are actually up (and again on shutdown).
func (s *HealthServer) SetReady(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(serviceName, status)
	s.health.SetServingStatus("", status)
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
