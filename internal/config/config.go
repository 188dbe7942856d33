package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "LINKEDLENS_CONFIG"
	logLevelEnv         = "LINKEDLENS_LOG_LEVEL"
	serverAddrEnv       = "LINKEDLENS_ADDR"
	providerEnv         = "LINKEDLENS_PROVIDER"
	storageDriverEnv    = "LINKEDLENS_STORAGE_DRIVER"
	storageDSNEnv       = "LINKEDLENS_STORAGE_DSN"
	geminiAPIKeyEnv     = "GEMINI_API_KEY"
	openRouterAPIKeyEnv = "OPENROUTER_API_KEY"
	openRouterModelEnv  = "OPENROUTER_MODEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Page       PageConfig       `yaml:"page"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Storage    StorageConfig    `yaml:"storage"`
}

// LoggingConfig sets the slog level (debug, info, warn, error).
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig describes the control surface listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// PageConfig points at the rendered feed snapshot.
type PageConfig struct {
	Path     string        `yaml:"path"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// AnalysisConfig controls when runs happen without a user request.
type AnalysisConfig struct {
	StartupDelay time.Duration `yaml:"startupDelay"`
	// Interval re-runs analysis periodically; zero disables it.
	Interval time.Duration `yaml:"interval"`
}

// ExtractorConfig overrides the locators and can lower the post cap (at most 15)
// and text bound (at most 500).
type ExtractorConfig struct {
	MaxPosts       int      `yaml:"maxPosts"`
	MaxTextLength  int      `yaml:"maxTextLength"`
	PostLocators   []string `yaml:"postLocators"`
	TextLocators   []string `yaml:"textLocators"`
	AuthorLocators []string `yaml:"authorLocators"`
}

// ClassifierConfig holds retry and sampling settings shared by providers.
type ClassifierConfig struct {
	MaxRetries  int           `yaml:"maxRetries"`
	RetryDelay  time.Duration `yaml:"retryDelay"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
}

// ProvidersConfig seeds provider selection and credentials into the settings
// store; values already stored win.
type ProvidersConfig struct {
	Default    string           `yaml:"default"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// OpenRouterConfig defines how to contact the OpenRouter API.
type OpenRouterConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Model    string `yaml:"model"`
}

// StorageConfig selects the settings store: memory, sqlite or postgres.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Load reads the file named by LINKEDLENS_CONFIG (if set) and applies environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom reads YAML configuration from path (if present), then a sibling
// <name>.local.yaml, and applies environment overrides. Unreadable files are
// logged and skipped.
func LoadFrom(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		for _, file := range []string{path, localVariant(path)} {
			fileCfg, err := readFile(file)
			if err != nil {
				if !os.IsNotExist(err) || file == path {
					log.Printf("config: %v (ignoring %s)", err, file)
				}
				continue
			}
			if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
				log.Printf("config: cannot merge %s: %v (ignoring)", file, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate reports settings the application cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver: unsupported driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn: required for driver %q", c.Storage.Driver)
	}
	switch c.Providers.Default {
	case "gemini", "openrouter":
	default:
		return fmt.Errorf("providers.default: unknown provider %q", c.Providers.Default)
	}
	if c.Classifier.MaxRetries < 0 {
		return fmt.Errorf("classifier.maxRetries: must not be negative")
	}
	if c.Extractor.MaxPosts > 15 {
		return fmt.Errorf("extractor.maxPosts: at most 15, got %d", c.Extractor.MaxPosts)
	}
	if c.Extractor.MaxTextLength > 500 {
		return fmt.Errorf("extractor.maxTextLength: at most 500, got %d", c.Extractor.MaxTextLength)
	}
	return nil
}

func readFile(path string) (Config, error) {
	var fileCfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, err
	}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fileCfg, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

func localVariant(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(providerEnv); v != "" {
		c.Providers.Default = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Providers.Gemini.APIKey = v
	}

	if v := os.Getenv(openRouterAPIKeyEnv); v != "" {
		c.Providers.OpenRouter.APIKey = v
	}

	if v := os.Getenv(openRouterModelEnv); v != "" {
		c.Providers.OpenRouter.Model = v
	}

	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Storage.Driver = v
	}

	if v := os.Getenv(storageDSNEnv); v != "" {
		c.Storage.DSN = v
	}
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: "127.0.0.1:8090"},
		Page: PageConfig{
			Path:     "feed.html",
			Debounce: 250 * time.Millisecond,
		},
		Analysis: AnalysisConfig{StartupDelay: 2 * time.Second},
		Extractor: ExtractorConfig{
			MaxPosts:      15,
			MaxTextLength: 500,
		},
		Classifier: ClassifierConfig{
			MaxRetries:  1,
			RetryDelay:  time.Second,
			Temperature: 0.3,
			MaxTokens:   2048,
		},
		Providers: ProvidersConfig{
			Default: "gemini",
			Gemini: GeminiConfig{
				Endpoint: "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
			},
			OpenRouter: OpenRouterConfig{
				Endpoint: "https://openrouter.ai/api/v1/chat/completions",
				Model:    "anthropic/claude-3-haiku",
			},
		},
		Storage: StorageConfig{Driver: "sqlite", DSN: "linkedlens.db"},
	}
}
