package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Settings struct {
	Broker        BrokerSettings   `mapstructure:"broker"`
	Store         StoreSettings    `mapstructure:"store"`
	Consumer      ConsumerSettings `mapstructure:"consumer"`
	API           APISettings      `mapstructure:"api"`
	Observability Observability    `mapstructure:"observability"`
}

// ConsumerSettings tunes the consumer loop and the dead-letter monitor.
type ConsumerSettings struct {
	MaxDeliveries   int           `mapstructure:"max_deliveries" validate:"min=1"`
	StageTimeout    time.Duration `mapstructure:"stage_timeout"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	MonitorBatch    int           `mapstructure:"monitor_batch" validate:"min=1"`
	ListenAddr      string        `mapstructure:"listen_addr"` // health + metrics
}

type APISettings struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

func (c *Settings) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// LoadFromFile reads orderflow.yaml from the given path (then the current
// directory), merges an environment-specific overlay when present, applies
// ORDERFLOW_* environment variables and validates the result.
func LoadFromFile(filePath string) (*Settings, error) {
	env := getEnvWithDefaultLookup("ENVIRONMENT", "development")

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("orderflow")
	v.AddConfigPath(filePath)
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("No config file found or read error: %v (will rely on defaults and env)", err)
	}

	v.SetConfigName("orderflow." + env)
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("ORDERFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // env vars like ORDERFLOW_BROKER_TYPE

	// Bind environment variables explicitly to ensure they map correctly
	v.BindEnv("broker.type")
	v.BindEnv("broker.url")
	v.BindEnv("broker.queue")
	v.BindEnv("broker.exchange")
	v.BindEnv("store.type")
	v.BindEnv("store.dsn")
	v.BindEnv("store.uri")
	v.BindEnv("store.url")
	v.BindEnv("store.db_name")
	v.BindEnv("store.retention")
	v.BindEnv("consumer.max_deliveries")
	v.BindEnv("consumer.stage_timeout")
	v.BindEnv("consumer.monitor_interval")
	v.BindEnv("consumer.monitor_batch")
	v.BindEnv("consumer.listen_addr")
	v.BindEnv("api.listen_addr")
	v.BindEnv("observability.service_name")
	v.BindEnv("observability.tracing_url")

	cfg := &Settings{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broker.type", "memory")
	v.SetDefault("broker.queue", "orders-queue")
	v.SetDefault("broker.exchange", "orders")
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.retention", 10*time.Minute)
	v.SetDefault("consumer.max_deliveries", 5)
	v.SetDefault("consumer.stage_timeout", 5*time.Second)
	v.SetDefault("consumer.monitor_interval", 5*time.Minute)
	v.SetDefault("consumer.monitor_batch", 10)
	v.SetDefault("consumer.listen_addr", ":9090")
	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("observability.service_name", "orderflow")
}

func getEnvWithDefaultLookup(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
