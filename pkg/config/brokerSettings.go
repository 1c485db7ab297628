package config

// BrokerSettings holds configuration for connecting to the order queue broker.
type BrokerSettings struct {
	Type     string `mapstructure:"type" validate:"required,oneof=memory rabbitmq"`
	URL      string `mapstructure:"url"`
	Queue    string `mapstructure:"queue" validate:"required"`
	Exchange string `mapstructure:"exchange"`
}
