package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Camera identity reported in every envelope
	CameraID string
	Location string

	// Capture source: webcam index ("0") or an RTSP/file URL
	CaptureSource string
	FrameWidth    int
	FrameHeight   int
	TargetFPS     int

	// Detection
	ModelPath           string
	ConfidenceThreshold float64

	// Sampling: run detection/analysis/dispatch every Nth frame
	SampleInterval int

	// Density analysis
	AreaDivisor     float64
	DensityMedium   float64
	DensityHigh     float64
	DensityCritical float64
	ZonesJSON       string // optional JSON zone layout, empty = default zones

	// Event thresholds
	OvercrowdingCount     int
	OvercrowdingHighCount int
	GatheringCount        int

	// Reporting backend
	BackendURL      string
	DispatchTimeout time.Duration

	// Display and recording
	ShowVideo       bool
	SaveVideo       bool
	VideoOutputPath string
	RecordFPS       float64

	// NATS event fan-out (optional, off by default)
	NatsEnabled        bool
	NatsURL            string
	EventsSubject      string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int

	// Status API
	APIEnabled bool
	Port       int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Camera identity
		CameraID: getEnv("CAMERA_ID", "CAM001"),
		Location: getEnv("LOCATION", "Main Entrance"),

		// Capture (configuration only; the source is not forced to comply)
		CaptureSource: getEnv("CAPTURE_SOURCE", "0"),
		FrameWidth:    getEnvInt("FRAME_WIDTH", 1280),
		FrameHeight:   getEnvInt("FRAME_HEIGHT", 720),
		TargetFPS:     getEnvInt("TARGET_FPS", 30),

		// Detection
		ModelPath:           getEnv("MODEL_PATH", ""),
		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.5),

		// Sampling
		SampleInterval: getEnvInt("SAMPLE_INTERVAL", 3),

		// Density analysis
		AreaDivisor:     getEnvFloat("AREA_DIVISOR", 10000),
		DensityMedium:   getEnvFloat("DENSITY_MEDIUM", 0.8),
		DensityHigh:     getEnvFloat("DENSITY_HIGH", 1.5),
		DensityCritical: getEnvFloat("DENSITY_CRITICAL", 2.0),
		ZonesJSON:       getEnv("ZONES", ""),

		// Event thresholds
		OvercrowdingCount:     getEnvInt("OVERCROWDING_COUNT", 20),
		OvercrowdingHighCount: getEnvInt("OVERCROWDING_HIGH_COUNT", 30),
		GatheringCount:        getEnvInt("GATHERING_COUNT", 8),

		// Reporting backend
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:5000"),
		DispatchTimeout: getEnvDuration("DISPATCH_TIMEOUT", 5*time.Second),

		// Display and recording
		ShowVideo:       getEnvBool("SHOW_VIDEO", true),
		SaveVideo:       getEnvBool("SAVE_VIDEO", false),
		VideoOutputPath: getEnv("VIDEO_OUTPUT_PATH", "crowd_analysis.avi"),
		RecordFPS:       getEnvFloat("RECORD_FPS", 20),

		// NATS event fan-out
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		EventsSubject:      getEnv("EVENTS_SUBJECT", "crowd.events"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited

		// Status API
		APIEnabled: getEnvBool("API_ENABLED", true),
		Port:       getEnvInt("PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
