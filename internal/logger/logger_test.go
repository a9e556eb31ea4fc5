package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/deppfellow/routekit/internal/config"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultObservabilityConfig()

	log := NewWithWriter(cfg, &buf)
	log.Debug().Msg("hidden")
	log.Error().Stack().Err(pkgerrors.New("boom")).Msg("visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "routekit", entry["service"])
	assert.Equal(t, "development", entry["environment"])
	assert.Contains(t, entry, "stack")
}

func TestNewWithWriter_LevelFromEnvironment(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultObservabilityConfig()
	cfg.Logging.Level = ""

	log := NewWithWriter(cfg, &buf)
	log.Debug().Msg("dev debug")
	assert.Contains(t, buf.String(), "dev debug")

	buf.Reset()
	cfg.Environment = "production"
	log = NewWithWriter(cfg, &buf)
	log.Debug().Msg("prod debug")
	assert.Empty(t, buf.String())
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultObservabilityConfig()
	cfg.Logging.Format = "console"

	log := NewWithWriter(cfg, &buf)
	log.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewLoggerService_DisabledWithoutLicense(t *testing.T) {
	cfg := config.DefaultObservabilityConfig()

	service, err := NewLoggerService(cfg)
	require.NoError(t, err)

	assert.Nil(t, service.GetApplication())
	assert.NotPanics(t, service.Shutdown)

	var nilService *LoggerService
	assert.Nil(t, nilService.GetApplication())
	assert.NotPanics(t, nilService.Shutdown)
}

func TestNewLoggerService_InvalidLicense(t *testing.T) {
	cfg := config.DefaultObservabilityConfig()
	cfg.NewRelic.LicenseKey = "too-short"

	_, err := NewLoggerService(cfg)
	assert.ErrorContains(t, err, "failed to initialize new relic")
}
