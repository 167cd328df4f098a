package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MemoryStore selects the in-memory credential store instead of a file.
const MemoryStore = "memory"

// Config stores runtime configuration for the voice chat client.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Audio    AudioConfig    `yaml:"audio"`
	Playback PlaybackConfig `yaml:"playback"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
}

type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"ffmpeg_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
}

type PlaybackConfig struct {
	PlayerCommand string `yaml:"ffplay_command"`
}

type SessionConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// CredentialsFile is where the session identity is persisted, or
	// MemoryStore to keep it for the process lifetime only.
	CredentialsFile string `yaml:"credentials_file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level onto slog. Unknown names mean info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load resolves configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = filepath.Join(home, ".cache")
	}

	cfg := defaults(cacheDir)

	path, explicit := configFilePath(home)
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	applyEnv(&cfg)
	normalize(&cfg, cacheDir)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults(cacheDir string) Config {
	return Config{
		Backend: BackendConfig{BaseURL: "http://localhost:8080"},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      16000,
			Channels:        1,
		},
		Playback: PlaybackConfig{PlayerCommand: "ffplay"},
		Session: SessionConfig{
			ChunkSize:       4096,
			CredentialsFile: defaultCredentialsFile(cacheDir),
		},
		Log: LogConfig{Level: "info"},
	}
}

func defaultCredentialsFile(cacheDir string) string {
	return filepath.Join(cacheDir, "voicechat", "session.json")
}

func configFilePath(home string) (string, bool) {
	if path := strings.TrimSpace(os.Getenv("VOICECHAT_CONFIG_FILE")); path != "" {
		return path, true
	}
	return filepath.Join(home, ".config", "voicechat", "config.yaml"), false
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty file decodes to io.EOF and leaves the defaults alone.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Backend.BaseURL = envOrDefault("VOICECHAT_BASE_URL", cfg.Backend.BaseURL)
	cfg.Audio.RecorderCommand = envOrDefault("VOICECHAT_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("VOICECHAT_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = envOrDefault("VOICECHAT_AUDIO_INPUT_DEVICE", cfg.Audio.InputDevice)
	cfg.Audio.SampleRate = envOrDefaultInt("VOICECHAT_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("VOICECHAT_CHANNELS", cfg.Audio.Channels)
	cfg.Playback.PlayerCommand = envOrDefault("VOICECHAT_FFPLAY_COMMAND", cfg.Playback.PlayerCommand)
	cfg.Session.ChunkSize = envOrDefaultInt("VOICECHAT_AUDIO_CHUNK_SIZE", cfg.Session.ChunkSize)
	cfg.Session.CredentialsFile = envOrDefault("VOICECHAT_SESSION_FILE", cfg.Session.CredentialsFile)
	cfg.Log.Level = envOrDefault("VOICECHAT_LOG_LEVEL", cfg.Log.Level)
}

func normalize(cfg *Config, cacheDir string) {
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	if cfg.Audio.RecorderCommand == "" {
		cfg.Audio.RecorderCommand = "ffmpeg"
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Playback.PlayerCommand == "" {
		cfg.Playback.PlayerCommand = "ffplay"
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if strings.TrimSpace(cfg.Session.CredentialsFile) == "" {
		cfg.Session.CredentialsFile = defaultCredentialsFile(cacheDir)
	}
}

func validate(cfg Config) error {
	var errs []error

	parsed, err := url.Parse(cfg.Backend.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("backend.base_url %q: %w", cfg.Backend.BaseURL, err))
	case parsed.Scheme != "http" && parsed.Scheme != "https":
		errs = append(errs, fmt.Errorf("backend.base_url %q must use http or https", cfg.Backend.BaseURL))
	case parsed.Host == "":
		errs = append(errs, fmt.Errorf("backend.base_url %q has no host", cfg.Backend.BaseURL))
	}

	return errors.Join(errs...)
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
