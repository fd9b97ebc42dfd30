package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/glebovdev/trackdeck/internal/cache"
	"github.com/glebovdev/trackdeck/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const debugLogName = "debug.log"

// setupLogging routes the global logger away from the terminal the TUI owns.
// With debug enabled it writes to a log file in the cache directory and
// returns its path.
func setupLogging(debug bool, stderr io.Writer) string {
	if !debug {
		// Avoid TUI corruption by only logging errors to /dev/null
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		logFile, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0644)
		if err == nil {
			log.Logger = log.Output(logFile)
		}
		return ""
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	cacheDir, err := cache.GetCacheDir()
	if err != nil {
		fmt.Fprintf(stderr, "Warning: could not get cache dir: %v\n", err)
		cacheDir = os.TempDir()
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		fmt.Fprintf(stderr, "Warning: could not create log dir: %v\n", err)
	}

	logPath := filepath.Join(cacheDir, debugLogName)
	var out io.Writer
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: could not create log file: %v\n", err)
		out = stderr
	} else {
		out = logFile
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"})
	log.Info().Msgf("Starting %s v%s (debug mode)", config.AppName, config.AppVersion)

	if configPath, err := config.GetConfigPath(); err == nil {
		log.Debug().Msgf("Config: %s", configPath)
	}
	log.Debug().Msgf("Cache: %s", cacheDir)

	return logPath
}
