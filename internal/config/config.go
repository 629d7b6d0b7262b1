package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned when the chat backend's API key is not set.
var ErrMissingCredential = errors.New("missing credential")

// Config holds the settings shared by every coach process.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Slots      SlotsConfig      `yaml:"slots"`
	Listen     ListenConfig     `yaml:"listen"`
	Chat       ChatConfig       `yaml:"chat"`
	Speak      SpeakConfig      `yaml:"speak"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
}

// SlotsConfig names the files the processes hand text through.
type SlotsConfig struct {
	Request  string `yaml:"request"`
	Response string `yaml:"response"`
	Audio    string `yaml:"audio"`

	// ProcessExisting makes watchers treat content present at startup as new.
	ProcessExisting bool `yaml:"process_existing"`
}

// ListenConfig configures the transcription producer.
type ListenConfig struct {
	ModelPath   string        `yaml:"model_path"`
	SampleRate  int           `yaml:"sample_rate"`
	Chunk       time.Duration `yaml:"chunk"`
	BeamSize    int           `yaml:"beam_size"`
	Temperature float32       `yaml:"temperature"`
	Language    string        `yaml:"language"`
	Socket      string        `yaml:"socket"`
	UIAddr      string        `yaml:"ui_addr"`    // empty disables the websocket feed
	Chime       string        `yaml:"chime"`      // mp3 played on start, empty disables
	KeepAudio   string        `yaml:"keep_audio"` // wav path for the last recording
}

// ChatConfig configures the response generator.
type ChatConfig struct {
	Backend     string        `yaml:"backend"` // "gemini" or "openai"
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Poll        time.Duration `yaml:"poll"`
	BaseURL     string        `yaml:"base_url"` // empty uses the vendor endpoint
	Proxy       string        `yaml:"proxy"`    // socks5 host:port, empty for direct
	Timeout     time.Duration `yaml:"timeout"`  // 0 waits forever
}

// SpeakConfig configures the speech player.
type SpeakConfig struct {
	Backend string        `yaml:"backend"` // "coqui" or "espeak"
	Server  string        `yaml:"server"`
	Voice   string        `yaml:"voice"`
	Poll    time.Duration `yaml:"poll"`
	Duck    bool          `yaml:"duck"`
}

// SupervisorConfig configures process launching.
type SupervisorConfig struct {
	BinDir string `yaml:"bin_dir"` // empty means next to the supervisor binary
}

// DefaultConfigPath is looked up in the working directory when no
// config file is passed explicitly.
const DefaultConfigPath = "coach.yaml"

// Default returns a Config matching the file names the components
// have always used.
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		LogLevel: "info",
		Slots: SlotsConfig{
			Request:  "input.txt",
			Response: "chat_output.txt",
			Audio:    "coqui_output_fast.wav",
		},
		Listen: ListenConfig{
			ModelPath:  filepath.Join(home, ".local", "share", "coach", "models", "ggml-tiny.en.bin"),
			SampleRate: 16000,
			Chunk:      500 * time.Millisecond,
			BeamSize:   15,
			Language:   "en",
			Socket:     "/tmp/coach.sock",
		},
		Chat: ChatConfig{
			Backend:     "gemini",
			Model:       "gemini-2.0-flash-exp",
			Temperature: 0.7,
			Poll:        time.Second,
		},
		Speak: SpeakConfig{
			Backend: "coqui",
			Server:  "http://localhost:5002",
			Poll:    500 * time.Millisecond,
		},
	}
}

// Load reads a YAML config file over the defaults and validates it.
// An empty path loads DefaultConfigPath if it exists, else the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err != nil {
			return Default(), nil
		}
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Listen.ModelPath = expandTilde(cfg.Listen.ModelPath)
	cfg.Supervisor.BinDir = expandTilde(cfg.Supervisor.BinDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads a dotenv file into the process environment. A missing
// file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.Slots.Request == "" || c.Slots.Response == "" || c.Slots.Audio == "" {
		return fmt.Errorf("slots.request, slots.response and slots.audio must not be empty")
	}
	if c.Slots.Request == c.Slots.Response {
		return fmt.Errorf("slots.request and slots.response must differ")
	}

	if c.Listen.SampleRate <= 0 {
		return fmt.Errorf("listen.sample_rate must be > 0")
	}
	if c.Listen.Chunk <= 0 {
		return fmt.Errorf("listen.chunk must be > 0")
	}
	if c.Listen.Socket == "" {
		return fmt.Errorf("listen.socket must not be empty")
	}

	switch c.Chat.Backend {
	case "gemini", "openai":
	default:
		return fmt.Errorf("chat.backend must be \"gemini\" or \"openai\", got %q", c.Chat.Backend)
	}
	if c.Chat.Model == "" {
		return fmt.Errorf("chat.model must not be empty")
	}
	if c.Chat.Poll <= 0 {
		return fmt.Errorf("chat.poll must be > 0")
	}
	if c.Chat.Timeout < 0 {
		return fmt.Errorf("chat.timeout must not be negative")
	}

	switch c.Speak.Backend {
	case "coqui":
		if c.Speak.Server == "" {
			return fmt.Errorf("speak.server must be set for the coqui backend")
		}
	case "espeak":
	default:
		return fmt.Errorf("speak.backend must be \"coqui\" or \"espeak\", got %q", c.Speak.Backend)
	}
	if c.Speak.Poll <= 0 {
		return fmt.Errorf("speak.poll must be > 0")
	}

	return nil
}

// CredentialEnv names the environment variable holding the API key of
// the configured chat backend.
func (c ChatConfig) CredentialEnv() string {
	if c.Backend == "openai" {
		return "OPENAI_API_KEY"
	}
	return "GOOGLE_API_KEY"
}

// Credential returns the chat backend's API key from the environment.
func (c ChatConfig) Credential() (string, error) {
	name := c.CredentialEnv()
	key := strings.TrimSpace(os.Getenv(name))
	if key == "" {
		return "", fmt.Errorf("%w: %s not set", ErrMissingCredential, name)
	}
	return key, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
