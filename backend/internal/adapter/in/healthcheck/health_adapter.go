package healthcheck

import (
	"context"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName имя сервиса в health-протоколе
const ServiceName = "walkthrough.Navigation"

// DefaultPollInterval как часто проверяется готовность
const DefaultPollInterval = 500 * time.Millisecond

// ReadinessSource сообщает, загружен ли коллизионный прокси
type ReadinessSource interface {
	Ready() bool
}

// HealthAdapter публикует готовность навигации через стандартный gRPC health.
// SERVING после загрузки прокси, NOT_SERVING пока движение идет без коллизий.
type HealthAdapter struct {
	server   *grpc.Server
	health   *health.Server
	source   ReadinessSource
	clock    clock.Clock
	interval time.Duration
	serving  bool
	logger   *zap.SugaredLogger
}

// NewHealthAdapter создает gRPC сервер с зарегистрированным health-сервисом
func NewHealthAdapter(source ReadinessSource, clk clock.Clock, interval time.Duration, logger *zap.SugaredLogger) *HealthAdapter {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	a := &HealthAdapter{
		server:   grpc.NewServer(),
		health:   health.NewServer(),
		source:   source,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
	healthpb.RegisterHealthServer(a.server, a.health)
	a.publish(healthpb.HealthCheckResponse_NOT_SERVING)
	return a
}

// Server gRPC сервер, на котором висит health-сервис
func (a *HealthAdapter) Server() *grpc.Server {
	return a.server
}

// Refresh сверяет статус с источником готовности. Вызывается из Watch.
func (a *HealthAdapter) Refresh() {
	ready := a.source != nil && a.source.Ready()
	if ready == a.serving {
		return
	}
	a.serving = ready
	if ready {
		a.publish(healthpb.HealthCheckResponse_SERVING)
		a.logger.Infow("navigation ready", "service", ServiceName)
	} else {
		a.publish(healthpb.HealthCheckResponse_NOT_SERVING)
		a.logger.Warnw("navigation degraded", "service", ServiceName)
	}
}

func (a *HealthAdapter) publish(status healthpb.HealthCheckResponse_ServingStatus) {
	a.health.SetServingStatus("", status)
	a.health.SetServingStatus(ServiceName, status)
}

// Watch опрашивает готовность до отмены контекста
func (a *HealthAdapter) Watch(ctx context.Context) {
	ticker := a.clock.Ticker(a.interval)
	defer ticker.Stop()

	a.Refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Refresh()
		}
	}
}

// Serve обслуживает listener до Stop
func (a *HealthAdapter) Serve(lis net.Listener) error {
	a.logger.Infow("grpc health listening", "addr", lis.Addr().String())
	if err := a.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return errors.Wrap(err, "serving grpc")
	}
	return nil
}

// Stop переводит статус в NOT_SERVING и останавливает сервер
func (a *HealthAdapter) Stop() {
	a.health.Shutdown()
	a.server.GracefulStop()
}
