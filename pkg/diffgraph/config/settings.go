package config

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
)

// Paths read by SettingsFrom.
const (
	KeyMode       = "mode"
	KeyLogLevel   = "log.level"
	KeyLogFormat  = "log.format"
	KeyStorePath  = "store.path"
	KeyOperations = "operations"
	KeyMetrics    = "telemetry.metrics"
	KeyTracing    = "telemetry.tracing"
)

var knownKeys = []string{
	KeyMode, KeyLogLevel, KeyLogFormat, KeyStorePath, KeyOperations, KeyMetrics, KeyTracing,
}

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Settings is the validated runtime configuration.
type Settings struct {
	// Mode is the differentiation mode new graphs start in.
	Mode diffgraph.DifferentiationMode
	// LogLevel is the minimum level logged.
	LogLevel slog.Level
	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string
	// StorePath is the SQLite database for stored graphs.
	StorePath string
	// OperationsPath names a document of extra operation definitions.
	OperationsPath string
	// Metrics enables the OpenTelemetry metrics recorder.
	Metrics bool
	// Tracing enables the OpenTelemetry span manager.
	Tracing bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Mode:      diffgraph.Reverse,
		LogLevel:  slog.LevelInfo,
		LogFormat: LogFormatText,
		StorePath: ":memory:",
	}
}

// SettingsFrom validates c and reads settings from it, starting from
// DefaultSettings. Unknown paths, wrongly typed values and unknown modes,
// levels or formats are errors.
func SettingsFrom(c Config) (Settings, error) {
	for _, p := range c.Paths() {
		if !slices.Contains(knownKeys, p) {
			return Settings{}, fmt.Errorf("unknown config key %q", p)
		}
	}

	s := DefaultSettings()
	var (
		mode, level, format string
		err                 error
	)
	strs := []struct {
		key string
		dst *string
	}{
		{KeyMode, &mode},
		{KeyLogLevel, &level},
		{KeyLogFormat, &format},
		{KeyStorePath, &s.StorePath},
		{KeyOperations, &s.OperationsPath},
	}
	for _, f := range strs {
		if *f.dst, err = c.String(f.key, *f.dst); err != nil {
			return Settings{}, err
		}
	}
	if s.Metrics, err = c.Bool(KeyMetrics, s.Metrics); err != nil {
		return Settings{}, err
	}
	if s.Tracing, err = c.Bool(KeyTracing, s.Tracing); err != nil {
		return Settings{}, err
	}

	if mode != "" {
		if s.Mode, err = diffgraph.ParseMode(mode); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", KeyMode, err)
		}
	}
	if level != "" {
		if err := s.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", KeyLogLevel, err)
		}
	}
	switch f := strings.ToLower(format); f {
	case "":
	case LogFormatText, LogFormatJSON:
		s.LogFormat = f
	default:
		return Settings{}, fmt.Errorf("%s: unsupported format %q", KeyLogFormat, f)
	}
	return s, nil
}

// Logger builds a slog logger writing to w with the configured level and format.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
