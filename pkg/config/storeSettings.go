package config

import "time"

// StoreSettings selects and configures the idempotency store backend.
type StoreSettings struct {
	Type      string        `mapstructure:"type" validate:"required,oneof=memory redis postgres mongo"`
	DSN       string        `mapstructure:"dsn"`     // postgres
	URI       string        `mapstructure:"uri"`     // mongo
	URL       string        `mapstructure:"url"`     // redis
	DBName    string        `mapstructure:"db_name"` // mongo database
	Retention time.Duration `mapstructure:"retention"`
}
