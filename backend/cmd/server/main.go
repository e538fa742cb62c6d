package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"walkthrough/backend/internal/adapter/in/healthcheck"
	"walkthrough/backend/internal/adapter/in/ws"
	"walkthrough/backend/internal/config"
	"walkthrough/backend/internal/core/domain/service"
	"walkthrough/backend/internal/logging"
	"walkthrough/backend/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	app := &cli.App{
		Name:  "walkthrough-server",
		Usage: "serves immersive building walkthrough sessions over websocket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"WALKTHROUGH_CONFIG"}},
			&cli.StringFlag{Name: "listen", Usage: "HTTP and websocket listen address"},
			&cli.StringFlag{Name: "grpc-listen", Usage: "gRPC health listen address, empty disables it"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "static", Usage: "directory with the web client"},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "print the effective configuration as YAML",
				Action: printConfig,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig читает файл конфигурации и применяет флаги поверх него
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("listen") {
		cfg.Server.Listen = c.String("listen")
	}
	if c.IsSet("grpc-listen") {
		cfg.Server.GRPCListen = c.String("grpc-listen")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printConfig(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func runServer(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := logging.New("walkthrough", cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.New()
	diagnostics := telemetry.NewDiagnostics(logger.Named("diagnostics"))
	recorder := telemetry.NewRecorder(cfg.Telemetry.Samples, clk, logger.Named("telemetry"))

	svc, err := service.NewWalkthroughService(cfg, diagnostics, recorder, clk, logger.Named("walkthrough"))
	if err != nil {
		return err
	}
	svc.LoadAssets()

	wsAdapter := ws.NewWSAdapter(ctx, svc, logger.Named("ws"))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsAdapter.HandleWS)
	mux.Handle("/debug/telemetry", telemetry.Handler(recorder, diagnostics, svc))
	if dir := c.String("static"); dir != "" {
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 2)

	var health *healthcheck.HealthAdapter
	if cfg.Server.GRPCListen != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCListen)
		if err != nil {
			return errors.Wrapf(err, "listening on %q", cfg.Server.GRPCListen)
		}
		health = healthcheck.NewHealthAdapter(svc, clk, healthcheck.DefaultPollInterval, logger.Named("health"))
		go health.Watch(ctx)
		go func() {
			if err := health.Serve(lis); err != nil {
				errs <- err
			}
		}()
	}

	go func() {
		logger.Infow("http listening", "addr", cfg.Server.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- errors.Wrap(err, "serving http")
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errs:
		logger.Errorw("server failed", "error", runErr)
	}

	return shutdown(httpServer, wsAdapter, svc, health, recorder, logger, runErr)
}

// shutdown останавливает всё по порядку и собирает ошибки
func shutdown(
	httpServer *http.Server,
	wsAdapter *ws.WSAdapter,
	svc *service.WalkthroughService,
	health *healthcheck.HealthAdapter,
	recorder *telemetry.Recorder,
	logger *zap.SugaredLogger,
	runErr error,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := multierr.Combine(runErr, errors.Wrap(httpServer.Shutdown(ctx), "stopping http"))

	// Websocket соединения перехвачены и Shutdown их не закрывает
	wsAdapter.CloseAll()
	svc.Shutdown()
	if health != nil {
		health.Stop()
	}

	recorder.PrintSummary()
	logger.Infow("stopped", "counters", recorder.Counters())
	return err
}
