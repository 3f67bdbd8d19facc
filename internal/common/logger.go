package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const logTimeFormat = "15:04:05"

// InitLogger builds the process logger from the [logging] section. File output
// goes to Directory/FileName; a directory that cannot be created downgrades to
// console-only output and is reported through the returned logger.
func InitLogger(config *Config) arbor.ILogger {
	cfg := config.Logging
	logger := arbor.NewLogger()

	toFile, toConsole := logOutputs(cfg.Output)
	var dirErr error
	if toFile {
		if dirErr = ensureDir(cfg.Directory); dirErr == nil {
			logger = logger.WithFileWriter(fileWriterConfig(cfg))
		} else {
			toConsole = true
		}
	}
	if toConsole || !toFile {
		logger = logger.WithConsoleWriter(consoleWriterConfig(cfg))
	}

	logger = logger.WithLevelFromString(cfg.Level)

	if dirErr != nil {
		logger.Warn().
			Err(dirErr).
			Str("directory", cfg.Directory).
			Msg("Log directory unavailable, logging to console only")
	}
	return logger
}

// LogFilePath returns where file output is written for cfg
func LogFilePath(cfg LoggingConfig) string {
	name := cfg.FileName
	if name == "" {
		name = "marketlens.log"
	}
	return filepath.Join(cfg.Directory, name)
}

func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return nil
}

// logOutputs resolves the configured outputs; "console" is an alias of "stdout"
func logOutputs(outputs []string) (toFile, toConsole bool) {
	for _, output := range outputs {
		switch strings.ToLower(strings.TrimSpace(output)) {
		case "file":
			toFile = true
		case "stdout", "console":
			toConsole = true
		}
	}
	return toFile, toConsole
}

func fileWriterConfig(cfg LoggingConfig) models.WriterConfiguration {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   LogFilePath(cfg),
		TimeFormat: logTimeFormat,
		MaxSize:    int64(maxSize) * 1024 * 1024,
		MaxBackups: cfg.MaxBackups,
		OutputType: outputFormat(cfg.Format),
	}
}

func consoleWriterConfig(cfg LoggingConfig) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: logTimeFormat,
		OutputType: outputFormat(cfg.Format),
	}
}

// outputFormat maps [logging] format to the writer format; text is logfmt
func outputFormat(format string) models.OutputFormat {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return models.OutputFormatJSON
	}
	return models.OutputFormatLogfmt
}
