// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// Components depend on this instead of the concrete Config so tests can
// substitute fixtures.
type Interface interface {
	Logger() LoggerConfig
	Gateway() GatewayConfig
	Planner() PlannerConfig
	Actor() ActorConfig
	Screen() ScreenConfig
	Input() InputConfig
	Loop() LoopConfig
	Paths() PathsConfig

	// Flag-driven overrides applied by the CLI layer after load.
	SetScreenIndex(int)
	SetLoopMaxSteps(int)
	SetActorMode(string)
	SetGatewayListenAddr(string)
}

// Actor modes. "remote" delegates action generation to the planner service;
// the other three call a computer-use backend directly.
const (
	ModeRemote          = "remote"
	ModeOpenAIOperator  = "oai-operator"
	ModeClaudeComputer  = "claude-computer-use"
	ModeUITars          = "ui-tars"
)

// LoggerConfig controls the console and rotating-file log sinks.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// GatewayConfig controls the local HTTP control surface.
type GatewayConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// PlannerConfig points the loop at the remote planner service.
type PlannerConfig struct {
	URL        string        `mapstructure:"url" yaml:"url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// ActorConfig selects and parameterizes the action-generation backend.
type ActorConfig struct {
	Mode          string `mapstructure:"mode" yaml:"mode"`
	Model         string `mapstructure:"model" yaml:"model"`
	MaxTokens     int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" yaml:"openai_base_url"`
	UITarsBaseURL string `mapstructure:"ui_tars_base_url" yaml:"ui_tars_base_url"`
	// Environment hint forwarded to the operator backend: windows, mac,
	// linux, or browser.
	Environment string `mapstructure:"environment" yaml:"environment"`

	// Credentials are bound from the environment at load time and never read
	// from the config file.
	OpenAIAPIKey    string `mapstructure:"openai_api_key" yaml:"-"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key" yaml:"-"`
}

// ScreenConfig fixes the target display and the coordinate scaling policy
// for the lifetime of a run.
type ScreenConfig struct {
	SelectedIndex  int  `mapstructure:"selected_index" yaml:"selected_index"`
	ScalingEnabled bool `mapstructure:"scaling_enabled" yaml:"scaling_enabled"`
}

// LoopConfig bounds and paces the execution loop.
type LoopConfig struct {
	MaxSteps     int           `mapstructure:"max_steps" yaml:"max_steps"`
	PaceInterval time.Duration `mapstructure:"pace_interval" yaml:"pace_interval"`
}

// PathsConfig locates run artifacts on disk.
type PathsConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	RunLogDir string `mapstructure:"run_log_dir" yaml:"run_log_dir"`
}

// Config holds the entire application configuration. Fields are private to
// enforce access through the Interface getters.
type Config struct {
	logger  LoggerConfig
	gateway GatewayConfig
	planner PlannerConfig
	actor   ActorConfig
	screen  ScreenConfig
	input   InputConfig
	loop    LoopConfig
	paths   PathsConfig
}

// rawConfig mirrors Config with exported fields so viper can unmarshal into
// it; mapstructure cannot populate unexported fields directly.
type rawConfig struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Planner PlannerConfig `mapstructure:"planner"`
	Actor   ActorConfig   `mapstructure:"actor"`
	Screen  ScreenConfig  `mapstructure:"screen"`
	Input   InputConfig   `mapstructure:"input"`
	Loop    LoopConfig    `mapstructure:"loop"`
	Paths   PathsConfig   `mapstructure:"paths"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.logger }
func (c *Config) Gateway() GatewayConfig { return c.gateway }
func (c *Config) Planner() PlannerConfig { return c.planner }
func (c *Config) Actor() ActorConfig     { return c.actor }
func (c *Config) Screen() ScreenConfig   { return c.screen }
func (c *Config) Input() InputConfig     { return c.input }
func (c *Config) Loop() LoopConfig       { return c.loop }
func (c *Config) Paths() PathsConfig     { return c.paths }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetScreenIndex(i int)          { c.screen.SelectedIndex = i }
func (c *Config) SetLoopMaxSteps(n int)         { c.loop.MaxSteps = n }
func (c *Config) SetActorMode(mode string)      { c.actor.Mode = mode }
func (c *Config) SetGatewayListenAddr(a string) { c.gateway.ListenAddr = a }

// SetDefaults seeds every configuration key so a bare process starts with a
// working local setup.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "deskhand")
	v.SetDefault("logger.log_file", "deskhand.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Gateway --
	v.SetDefault("gateway.listen_addr", "127.0.0.1:7888")
	v.SetDefault("gateway.shutdown_timeout", "15s")

	// -- Planner --
	v.SetDefault("planner.url", "http://localhost:7887/generate_action")
	v.SetDefault("planner.timeout", "300s")
	v.SetDefault("planner.max_retries", 2)

	// -- Actor --
	v.SetDefault("actor.mode", ModeRemote)
	v.SetDefault("actor.model", "")
	v.SetDefault("actor.max_tokens", 1024)
	v.SetDefault("actor.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("actor.ui_tars_base_url", "http://localhost:8000/v1")
	v.SetDefault("actor.environment", "windows")

	// -- Screen --
	v.SetDefault("screen.selected_index", 0)
	v.SetDefault("screen.scaling_enabled", true)

	// -- Input --
	setInputDefaults(v)

	// -- Loop --
	v.SetDefault("loop.max_steps", 50)
	v.SetDefault("loop.pace_interval", "1s")

	// -- Paths --
	v.SetDefault("paths.output_dir", "./tmp/outputs")
	v.SetDefault("paths.run_log_dir", "./log")
}

// NewConfigFromViper creates a configuration instance from a viper object,
// binding sensitive values to environment variables and validating the
// result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// API keys only ever come from the environment, never the config file.
	_ = v.BindEnv("actor.openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("actor.anthropic_api_key", "ANTHROPIC_API_KEY")

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg := &Config{
		logger:  raw.Logger,
		gateway: raw.Gateway,
		planner: raw.Planner,
		actor:   raw.Actor,
		screen:  raw.Screen,
		input:   raw.Input,
		loop:    raw.Loop,
		paths:   raw.Paths,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewDefaultConfig returns a configuration populated purely from defaults.
// Defaults always validate, so this cannot fail.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.screen.SelectedIndex < 0 {
		return fmt.Errorf("screen.selected_index must be zero or positive")
	}
	if c.loop.MaxSteps <= 0 {
		return fmt.Errorf("loop.max_steps must be a positive integer")
	}
	if c.loop.PaceInterval < 0 {
		return fmt.Errorf("loop.pace_interval must not be negative")
	}
	switch c.actor.Mode {
	case ModeRemote:
		if c.planner.URL == "" {
			return fmt.Errorf("planner.url is required when actor.mode is %q", ModeRemote)
		}
	case ModeOpenAIOperator, ModeClaudeComputer, ModeUITars:
		// Direct backends validate credentials lazily at first call.
	default:
		return fmt.Errorf("actor.mode must be one of %s",
			strings.Join([]string{ModeRemote, ModeOpenAIOperator, ModeClaudeComputer, ModeUITars}, ", "))
	}
	if err := c.input.Validate(); err != nil {
		return fmt.Errorf("input configuration invalid: %w", err)
	}
	if c.gateway.ListenAddr == "" {
		return fmt.Errorf("gateway.listen_addr must not be empty")
	}
	return nil
}
