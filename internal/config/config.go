package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Journal     JournalConfig   `yaml:"journal"`
	Announcer   AnnouncerConfig `yaml:"announcer"`
	Presets     PresetsConfig   `yaml:"presets"`
	Speech      SpeechConfig    `yaml:"speech"`
	Speaker     SpeakerConfig   `yaml:"speaker"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type JournalConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRoutes     int    `yaml:"max_routes"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type AnnouncerConfig struct {
	// IncludeFollowing appends the station after the upcoming stop to
	// intermediate announcements.
	IncludeFollowing bool `yaml:"include_following"`
}

type PresetsConfig struct {
	Path string `yaml:"path"`
}

type SpeechConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Mode            string `yaml:"mode"`
	Command         string `yaml:"command"`
	Voice           string `yaml:"voice"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	ChunkDurationMS int    `yaml:"chunk_duration_ms"`
	Target          string `yaml:"target"`
}

type SpeakerConfig struct {
	ID                string `yaml:"id"`
	Role              string `yaml:"role"`
	HeartbeatInterval int    `yaml:"heartbeat_interval_ms"`
	HeartbeatTimeout  int    `yaml:"heartbeat_timeout_ms"`
}

func Default() Config {
	return Config{
		RuntimeName: "ansage-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Journal: JournalConfig{
			Path:          "./data/ansage-journal.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxRoutes:     1000,
		},
		Announcer: AnnouncerConfig{
			IncludeFollowing: false,
		},
		Presets: PresetsConfig{
			Path: "",
		},
		Speech: SpeechConfig{
			Enabled:         false,
			Mode:            "mock",
			Voice:           "de-DE",
			SampleRate:      22050,
			Channels:        1,
			ChunkDurationMS: 400,
			Target:          "default",
		},
		Speaker: SpeakerConfig{
			ID:                "ansage-node-1",
			Role:              "runtime",
			HeartbeatInterval: 2000,
			HeartbeatTimeout:  6000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "ANSAGE_RUNTIME_NAME")
	overrideString(&cfg.Environment, "ANSAGE_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "ANSAGE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "ANSAGE_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "ANSAGE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "ANSAGE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "ANSAGE_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "ANSAGE_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "ANSAGE_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "ANSAGE_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "ANSAGE_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "ANSAGE_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "ANSAGE_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "ANSAGE_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "ANSAGE_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "ANSAGE_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "ANSAGE_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Journal.Path, "ANSAGE_JOURNAL_PATH")
	overrideString(&cfg.Journal.RetentionMode, "ANSAGE_JOURNAL_RETENTION_MODE")
	overrideInt(&cfg.Journal.RetentionDays, "ANSAGE_JOURNAL_RETENTION_DAYS")
	overrideInt(&cfg.Journal.MaxRoutes, "ANSAGE_JOURNAL_MAX_ROUTES")
	overrideBool(&cfg.Journal.VacuumOnStart, "ANSAGE_JOURNAL_VACUUM_ON_START")
	overrideBool(&cfg.Announcer.IncludeFollowing, "ANSAGE_ANNOUNCER_INCLUDE_FOLLOWING")
	overrideString(&cfg.Presets.Path, "ANSAGE_PRESETS_PATH")
	overrideBool(&cfg.Speech.Enabled, "ANSAGE_SPEECH_ENABLED")
	overrideString(&cfg.Speech.Mode, "ANSAGE_SPEECH_MODE")
	overrideString(&cfg.Speech.Command, "ANSAGE_SPEECH_COMMAND")
	overrideString(&cfg.Speech.Voice, "ANSAGE_SPEECH_VOICE")
	overrideInt(&cfg.Speech.SampleRate, "ANSAGE_SPEECH_SAMPLE_RATE")
	overrideInt(&cfg.Speech.Channels, "ANSAGE_SPEECH_CHANNELS")
	overrideInt(&cfg.Speech.ChunkDurationMS, "ANSAGE_SPEECH_CHUNK_DURATION_MS")
	overrideString(&cfg.Speech.Target, "ANSAGE_SPEECH_TARGET")
	overrideString(&cfg.Speaker.ID, "ANSAGE_SPEAKER_ID")
	overrideString(&cfg.Speaker.Role, "ANSAGE_SPEAKER_ROLE")
	overrideInt(&cfg.Speaker.HeartbeatInterval, "ANSAGE_SPEAKER_HEARTBEAT_INTERVAL_MS")
	overrideInt(&cfg.Speaker.HeartbeatTimeout, "ANSAGE_SPEAKER_HEARTBEAT_TIMEOUT_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Journal.Path == "" {
		return errors.New("journal.path must not be empty")
	}
	switch cfg.Journal.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("journal.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.Journal.RetentionDays < 0 {
		return errors.New("journal.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Speech.Enabled {
		switch cfg.Speech.Mode {
		case "mock", "exec":
		default:
			return errors.New("speech.mode must be one of mock|exec")
		}
		if cfg.Speech.Mode == "exec" && cfg.Speech.Command == "" {
			return errors.New("speech.command must be set when mode=exec")
		}
		if cfg.Speech.SampleRate <= 0 {
			return errors.New("speech.sample_rate must be positive")
		}
		if cfg.Speech.Channels <= 0 {
			return errors.New("speech.channels must be positive")
		}
	}
	if cfg.Speaker.ID == "" {
		return errors.New("speaker.id must not be empty")
	}
	if cfg.Speaker.HeartbeatInterval <= 0 {
		return errors.New("speaker.heartbeat_interval_ms must be positive")
	}
	if cfg.Speaker.HeartbeatTimeout <= cfg.Speaker.HeartbeatInterval {
		return errors.New("speaker.heartbeat_timeout_ms must be greater than heartbeat interval")
	}
	return nil
}
