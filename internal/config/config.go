// Package config loads the service configuration from configs/config.yml,
// an optional .env file and LAUNDRYBOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"laundrybot/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "LAUNDRYBOT"

type Config struct {
	Port       string            `mapstructure:"port"`
	DB         DBConfig          `mapstructure:"db"`
	Log        LogConfig         `mapstructure:"log"`
	Engine     EngineConfig      `mapstructure:"engine"`
	Button     ButtonConfig      `mapstructure:"button"`
	Appliances []ApplianceConfig `mapstructure:"appliances"`
	People     []string          `mapstructure:"people"`
	Notify     NotifyConfig      `mapstructure:"notify"`
	HTTP       HTTPConfig        `mapstructure:"http"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	// IdleTimeout is how long a below-threshold open load may go without a
	// state change before it is presumed finished.
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	AutoCollectOnIdle bool          `mapstructure:"auto_collect_on_idle"`
}

type ButtonConfig struct {
	Target string `mapstructure:"target"`
}

type ApplianceConfig struct {
	ID        int     `mapstructure:"id"`
	Name      string  `mapstructure:"name"`
	Threshold float64 `mapstructure:"threshold"`
	Cycles    int     `mapstructure:"cycles"`
	Role      string  `mapstructure:"role"`
	SourceID  int     `mapstructure:"source_id"`
}

type NotifyConfig struct {
	Backend string     `mapstructure:"backend"`
	MQTT    MQTTConfig `mapstructure:"mqtt"`
	NATS    NATSConfig `mapstructure:"nats"`
}

type MQTTConfig struct {
	Broker string `mapstructure:"broker"`
	Topic  string `mapstructure:"topic"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type HTTPConfig struct {
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// Load reads the env file (if present), then config.yml from configDir (if
// present), then environment overrides, and validates the result.
func Load(configDir, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "laundrybot.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("engine.idle_timeout", 10*time.Minute)
	v.SetDefault("engine.auto_collect_on_idle", false)
	v.SetDefault("button.target", models.ButtonTargetSource)
	v.SetDefault("appliances", []map[string]any{
		{"id": 1, "name": "washer", "threshold": 7.0, "cycles": 4, "role": "source"},
		{"id": 2, "name": "dryer", "threshold": 4.0, "cycles": 1, "role": "sink", "source_id": 1},
	})
	v.SetDefault("people", []string{})
	v.SetDefault("notify.backend", "none")
	v.SetDefault("notify.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("notify.mqtt.topic", "laundrybot/finished")
	v.SetDefault("notify.nats.url", "nats://localhost:4222")
	v.SetDefault("notify.nats.subject", "laundrybot.finished")
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.read_header_timeout", 10*time.Second)
}

// Validate checks the appliance topology and the enumerated settings.
func (c *Config) Validate() error {
	var problems []string

	switch c.Button.Target {
	case models.ButtonTargetSource, models.ButtonTargetLatest:
	default:
		problems = append(problems, fmt.Sprintf("button.target must be %q or %q, got %q", models.ButtonTargetSource, models.ButtonTargetLatest, c.Button.Target))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.Engine.IdleTimeout <= 0 {
		problems = append(problems, "engine.idle_timeout must be positive")
	}

	ids := make(map[int]ApplianceConfig, len(c.Appliances))
	names := make(map[string]bool, len(c.Appliances))
	sources := 0
	for _, a := range c.Appliances {
		if a.ID <= 0 {
			problems = append(problems, fmt.Sprintf("appliance %q: id must be positive", a.Name))
		}
		if _, dup := ids[a.ID]; dup {
			problems = append(problems, fmt.Sprintf("appliance id %d is used twice", a.ID))
		}
		ids[a.ID] = a
		if a.Name == "" {
			problems = append(problems, fmt.Sprintf("appliance %d: name is required", a.ID))
		} else if names[a.Name] {
			problems = append(problems, fmt.Sprintf("appliance name %q is used twice", a.Name))
		}
		names[a.Name] = true
		if a.Threshold <= 0 {
			problems = append(problems, fmt.Sprintf("appliance %q: threshold must be > 0", a.Name))
		}
		if a.Cycles < 1 {
			problems = append(problems, fmt.Sprintf("appliance %q: cycles must be >= 1", a.Name))
		}
		switch models.Role(a.Role) {
		case models.RoleSource:
			sources++
		case models.RoleSink:
		default:
			problems = append(problems, fmt.Sprintf("appliance %q: role must be source or sink, got %q", a.Name, a.Role))
		}
	}
	if sources != 1 {
		problems = append(problems, fmt.Sprintf("exactly one source appliance is required, got %d", sources))
	}
	for _, a := range c.Appliances {
		if models.Role(a.Role) != models.RoleSink {
			continue
		}
		if src, ok := ids[a.SourceID]; !ok || models.Role(src.Role) != models.RoleSource {
			problems = append(problems, fmt.Sprintf("sink %q: source_id %d is not a source appliance", a.Name, a.SourceID))
		}
	}

	seen := make(map[string]bool, len(c.People))
	for _, p := range c.People {
		p = strings.TrimSpace(p)
		if p == "" {
			problems = append(problems, "people: empty name")
			continue
		}
		if seen[p] {
			problems = append(problems, fmt.Sprintf("people: %q listed twice", p))
		}
		seen[p] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ApplianceModels converts the configured appliances, ordered as configured.
func (c *Config) ApplianceModels() []models.Appliance {
	out := make([]models.Appliance, 0, len(c.Appliances))
	for _, a := range c.Appliances {
		app := models.Appliance{
			ID:        a.ID,
			Name:      a.Name,
			Threshold: a.Threshold,
			Cycles:    a.Cycles,
			Role:      models.Role(a.Role),
		}
		if app.IsSink() {
			app.SourceID = a.SourceID
		}
		out = append(out, app)
	}
	return out
}

// PeopleModels converts the configured household members.
func (c *Config) PeopleModels() []models.Person {
	out := make([]models.Person, 0, len(c.People))
	for _, name := range c.People {
		out = append(out, models.Person{Name: strings.TrimSpace(name)})
	}
	return out
}
