package testlog

import (
	"testing"

	"github.com/danmuck/manifestd/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Start configures test logging and returns a logger tagged with the test name.
// The test's end and outcome are logged on cleanup.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	logger := log.Logger.With().Str("test", t.Name()).Logger()
	logger.Info().Msg("test start")
	t.Cleanup(func() {
		logger.Info().Bool("failed", t.Failed()).Msg("test end")
	})
	return logger
}
