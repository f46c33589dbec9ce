package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// NewLogger builds the process logger: colored text at debug level in
// development, JSON at info level otherwise. When LOG_FILE is set, entries
// are also written to a size-rotated file.
func NewLogger(cfg *Config) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if cfg.Development {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.LogFile != "" {
		hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Level:      log.GetLevel(),
			Formatter:  &logrus.JSONFormatter{},
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create log file hook: %w", err)
		}
		log.AddHook(hook)
	}

	return log, nil
}

func (c Config) Fields() logrus.Fields {
	return logrus.Fields{
		"addr":         c.Addr,
		"development":  c.Development,
		"base_path":    c.BasePath,
		"log_file":     c.LogFile,
		"kv_backend":   c.KV.Backend,
		"kv_path":      c.KV.Path,
		"max_number":   c.Game.MaxNumber,
		"card_count":   c.Game.CardCount,
		"strict_marks": c.Game.StrictMarks,
		"assets_dir":   c.Assets.Dir,
		"assets_cache": c.Assets.CacheName,
		"durable":      DatabaseConfigured(),
	}
}
