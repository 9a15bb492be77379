package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/reflection"

	grpcAdapter "github.com/quentinrf/plant-monitor/services/envsensor/internal/adapters/grpc"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/adapters/memory"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/adapters/mock"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/adapters/sqlite"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/adapters/ws"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/config"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/envsensor"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/host"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/ports"
	"github.com/quentinrf/plant-monitor/services/envsensor/pkg/sensorpb"
	"github.com/quentinrf/plant-monitor/services/envsensor/pkg/tlsconfig"
)

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	sensorType := cfg.SensorType()
	log.Info().Str("sensor", sensorType.String()).Msg("starting environment sensor service")

	// Initialize repository
	var repo domain.ReadingRepository
	switch cfg.Storage.Type {
	case "sqlite":
		r, err := sqlite.NewReadingRepository(cfg.Storage.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("db_path", cfg.Storage.DBPath).Msg("failed to open SQLite database")
		}
		defer r.Close()
		repo = r
		log.Info().Str("db_path", cfg.Storage.DBPath).Msg("initialized SQLite repository")
	default:
		repo = memory.NewReadingRepository()
		log.Info().Msg("initialized in-memory repository")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := host.NewLoop(64)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	// Initialize sensor manager
	var manager *mock.SensorManager
	switch cfg.Sensor.Source {
	case "gpio":
		log.Fatal().Msg("gpio sensor not yet implemented; set SENSOR_TYPE=mock")
	default:
		manager = mock.NewSensorManager(loop, mock.WithSensor(mock.FakeSensor{
			Descriptor: domain.Descriptor{
				Name:   fmt.Sprintf("Simulated %s sensor", sensorType),
				Vendor: "plant-monitor",
				Type:   sensorType,
			},
			BaseValue: cfg.Sensor.BaseValue,
			Variation: cfg.Sensor.Variation,
			Accuracy:  3,
		}))
		log.Info().
			Float64("base", cfg.Sensor.BaseValue).
			Float64("variation", cfg.Sensor.Variation).
			Msg("initialized mock sensor manager")
	}

	sensor, err := envsensor.New(manager, sensorType, envsensor.WithBufferSize(cfg.Sensor.BufferSize))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create sensor component")
	}
	broadcaster := ws.NewBroadcaster()
	sensor.Subscribe(broadcaster)

	// The component is only touched from the loop goroutine from here on
	go func() {
		if err := loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("host loop exited")
		}
	}()
	controller := host.NewController(loop, sensor)

	// Initialize gRPC handler
	handler := grpcAdapter.NewSensorServiceHandler(repo, controller)

	// Configure TLS if certificates are provided
	var serverOpts []grpc.ServerOption
	if cfg.TLS.Cert != "" {
		tlsCfg, err := tlsconfig.LoadServerTLS(cfg.TLS.Cert, cfg.TLS.Key, cfg.TLS.CA)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load TLS config")
		}
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsCfg)))
		log.Info().Msg("mTLS enabled")
	} else {
		log.Warn().Msg("TLS_CERT not set, starting without TLS (dev mode only)")
	}

	grpcServer := grpc.NewServer(serverOpts...)
	sensorpb.RegisterSensorServiceServer(grpcServer, handler)

	// Enable gRPC reflection for grpcurl testing
	reflection.Register(grpcServer)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.Port))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen")
	}
	log.Info().Str("port", cfg.Server.Port).Msg("gRPC server listening")

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatal().Err(err).Msg("failed to serve")
		}
	}()

	// WebSocket live feed
	httpServer := &http.Server{
		Addr:              cfg.Server.WSAddr,
		Handler:           ws.NewServer(broadcaster, controller).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Server.WSAddr).Msg("websocket server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("websocket server failed")
		}
	}()

	// Start background recorder
	recorder := ports.NewRecorder(controller, repo, cfg.Recorder.Interval,
		ports.WithRetention(cfg.Recorder.Retention))
	go recorder.Start(ctx)

	// SIGUSR1 pauses the component and SIGUSR2 resumes it
	lifecycle := make(chan os.Signal, 1)
	signal.Notify(lifecycle, syscall.SIGUSR1, syscall.SIGUSR2)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

wait:
	for {
		select {
		case sig := <-lifecycle:
			var err error
			if sig == syscall.SIGUSR1 {
				err = controller.Stop(ctx)
			} else {
				err = controller.Resume(ctx)
			}
			if err != nil {
				log.Error().Err(err).Str("signal", sig.String()).Msg("lifecycle signal failed")
			} else {
				log.Info().Str("signal", sig.String()).Msg("lifecycle signal handled")
			}
		case <-quit:
			break wait
		}
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Graceful shutdown
	cancel() // Stop recorder
	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("websocket server shutdown failed")
	}
	broadcaster.Close()

	if err := controller.Delete(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to delete sensor component")
	}
	stopLoop()
	if err := manager.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close sensor manager")
	}

	log.Info().Msg("server stopped")
}
