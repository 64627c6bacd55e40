// Package grpcserver runs the gRPC health side listener.
package grpcserver

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/and161185/vidhub/internal/metrics"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "vidhub.v1.API"

// Health serves grpc.health.v1.Health. It starts NOT_SERVING until SetServing.
type Health struct {
	srv    *grpc.Server
	status *health.Server
	log    *zap.Logger
}

// NewHealth builds the listener with recovery, logging and, when reg is set, metrics interceptors.
func NewHealth(reg *metrics.Registry, log *zap.Logger) *Health {
	if log == nil {
		log = zap.NewNop()
	}
	ics := []grpc.UnaryServerInterceptor{RecoverUnary(log), LoggingUnary(log)}
	if reg != nil {
		ics = append(ics, reg.UnaryInterceptor())
	}
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(ics...),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log)),
	)

	st := health.NewServer()
	st.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	st.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, st)

	return &Health{srv: srv, status: st, log: log}
}

// SetServing marks the API as able to take traffic.
func (h *Health) SetServing() {
	h.status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.status.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Serve blocks until Stop. It returns nil after a graceful stop.
func (h *Health) Serve(lis net.Listener) error {
	h.log.Info("grpc health listening", zap.String("addr", lis.Addr().String()))
	return h.srv.Serve(lis)
}

// Stop reports NOT_SERVING to every watcher, then drains in-flight calls.
func (h *Health) Stop() {
	h.status.Shutdown()
	h.srv.GracefulStop()
}
