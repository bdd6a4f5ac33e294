package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Rrens/auditlens/internal/config"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. Console output is used unless
// ENV=production or the format is json. When a log file is configured,
// entries are also written to a time-rotated file.
func Setup(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var console io.Writer = os.Stderr
	if os.Getenv("ENV") != "production" && cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		rl, err := newRotator(cfg)
		if err != nil {
			return log.Logger, closer, err
		}
		writers = append(writers, rl)
		closer = rl
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	log.Logger = logger
	return logger, closer, nil
}

func newRotator(cfg config.LoggingConfig) (*rotatelogs.RotateLogs, error) {
	opts := []rotatelogs.Option{rotatelogs.WithLinkName(cfg.File)}
	if cfg.MaxAge > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(cfg.MaxAge))
	}
	if cfg.RotationTime > 0 {
		opts = append(opts, rotatelogs.WithRotationTime(cfg.RotationTime))
	}

	rl, err := rotatelogs.New(cfg.File+".%Y%m%d", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create log rotator: %w", err)
	}
	return rl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
