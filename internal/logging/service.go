package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sjinay21/CrowdShieldAI/internal/config"
)

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("camera_id", cfg.CameraID).Str("service", service).Logger()
}
