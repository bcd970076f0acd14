package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sjinay21/CrowdShieldAI/internal/analysis"
	"github.com/sjinay21/CrowdShieldAI/internal/api"
	"github.com/sjinay21/CrowdShieldAI/internal/capture"
	"github.com/sjinay21/CrowdShieldAI/internal/config"
	"github.com/sjinay21/CrowdShieldAI/internal/detector"
	"github.com/sjinay21/CrowdShieldAI/internal/dispatch"
	"github.com/sjinay21/CrowdShieldAI/internal/logging"
	"github.com/sjinay21/CrowdShieldAI/internal/messaging"
	"github.com/sjinay21/CrowdShieldAI/internal/models"
	"github.com/sjinay21/CrowdShieldAI/internal/pipeline"
	"github.com/sjinay21/CrowdShieldAI/internal/zones"
)

func main() {
	// All cleanup is deferred inside run, so the exit happens after the
	// detector, NATS connection and recorder have been released.
	os.Exit(run())
}

func run() int {
	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration, then let flags override it
	cfg := config.Load()

	camera := flag.String("camera", cfg.CaptureSource, "capture source: webcam index or RTSP/file URL")
	model := flag.String("model", cfg.ModelPath, "path to ONNX person-detection model (empty = simulated)")
	backend := flag.String("backend", cfg.BackendURL, "monitoring backend base URL")
	noDisplay := flag.Bool("no-display", !cfg.ShowVideo, "run without the video window")
	saveVideo := flag.Bool("save-video", cfg.SaveVideo, "record the analyzed video to file")
	flag.Parse()

	cfg.CaptureSource = *camera
	cfg.ModelPath = *model
	cfg.BackendURL = *backend
	cfg.ShowVideo = !*noDisplay
	cfg.SaveVideo = *saveVideo

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Tee logs into the embedded Logdy UI when enabled
	if cfg.LogdyEnabled {
		if logdyWriter, _, err := logging.StartLogdy(cfg); err == nil {
			log.Logger = log.Output(zerolog.MultiLevelWriter(
				zerolog.ConsoleWriter{Out: os.Stderr}, logdyWriter))
		} else {
			log.Warn().Err(err).Msg("Failed to start Logdy, continuing without it")
		}
	}

	log.Info().
		Str("camera_id", cfg.CameraID).
		Str("location", cfg.Location).
		Str("version", cfg.Version).
		Str("backend", cfg.BackendURL).
		Str("source", cfg.CaptureSource).
		Msg("Starting CrowdShieldAI analyzer")

	// Zone layout
	zoneConfig := zones.Default()
	if cfg.ZonesJSON != "" {
		zoneConfig, err = zones.Parse(cfg.ZonesJSON)
		if err != nil {
			log.Error().Err(err).Msg("Invalid ZONES configuration")
			return 1
		}
	}

	// Detection capability: real model when configured, otherwise the
	// clearly-labeled simulated generator.
	fallback := detector.NewSimulated()
	var primary detector.Detector = fallback
	if cfg.ModelPath != "" {
		yolo, err := detector.NewYOLO(cfg.ModelPath, cfg.ConfidenceThreshold)
		if err != nil {
			log.Warn().Err(err).Str("model", cfg.ModelPath).
				Msg("Failed to load detection model, using simulated detections")
		} else {
			primary = yolo
			defer yolo.Close()
		}
	}
	if primary.Name() == fallback.Name() {
		log.Warn().Msg("Running with SIMULATED detections, not suitable for production")
	}

	// Optional NATS event fan-out
	var publisher models.MessagePublisher
	if cfg.NatsEnabled {
		natsSvc, err := messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, events will not be published")
		} else {
			publisher = natsSvc
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				natsSvc.Shutdown(ctx)
			}()
		}
	}

	source, err := capture.NewSource(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open capture source")
		return 1
	}

	loop := pipeline.NewLoop(
		cfg,
		source,
		capture.NewPresenter(cfg, zoneConfig),
		primary,
		fallback,
		analysis.NewDensityAnalyzer(zoneConfig, cfg.AreaDivisor, analysis.DensityThresholds{
			Medium:   cfg.DensityMedium,
			High:     cfg.DensityHigh,
			Critical: cfg.DensityCritical,
		}),
		analysis.NewEventClassifier(analysis.EventThresholds{
			Overcrowding:     cfg.OvercrowdingCount,
			OvercrowdingHigh: cfg.OvercrowdingHighCount,
			Gathering:        cfg.GatheringCount,
		}),
		dispatch.NewDispatcher(cfg),
		publisher,
	)

	// Informational status API
	var server *api.Server
	if cfg.APIEnabled {
		server = api.NewServer(cfg, loop.Stats())
		go func() {
			if err := server.Start(); err != nil {
				log.Error().Err(err).Msg("Status API failed")
			}
		}()
	}

	// Interrupt terminates the loop at the next iteration boundary
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := loop.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Status API forced to shutdown")
		}
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("Analysis run ended with error")
		return 1
	}
	log.Info().Msg("Shutdown complete")
	return 0
}
