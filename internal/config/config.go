package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Defaults applied by Load when a field is left empty
const (
	DefaultExchangeName    = "statmon-exchange"
	DefaultExchangeType    = "topic"
	DefaultQueueMessageTTL = 15 * time.Second
	DefaultMetricsPath     = "/metrics"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Logging   LoggingConfig   `yaml:"logging"`
	App       AppConfig       `yaml:"app"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Collector CollectorConfig `yaml:"collector"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string        `yaml:"name"`
	Durable    bool          `yaml:"durable"`
	AutoDelete bool          `yaml:"auto_delete"`
	Exclusive  bool          `yaml:"exclusive"`
	MessageTTL time.Duration `yaml:"message_ttl"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig bounds how stats messages are published
type PublishConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int    `yaml:"prefetch_count"`
	Tag           string `yaml:"tag"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// SchedulerConfig holds monitoring scheduler settings
type SchedulerConfig struct {
	// PublishAcks also sends start/stop acknowledgments to the queue
	PublishAcks bool `yaml:"publish_acks"`
}

// TasksConfig holds task producer settings
type TasksConfig struct {
	ScriptsDir    string        `yaml:"scripts_dir"`
	ScriptTimeout time.Duration `yaml:"script_timeout"`
	DiskPath      string        `yaml:"disk_path"`
}

// CollectorConfig holds collector service configuration
type CollectorConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	StoreTimeout    time.Duration `yaml:"store_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange.Name == "" {
		c.RabbitMQ.Exchange.Name = DefaultExchangeName
	}
	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = DefaultExchangeType
	}
	if c.RabbitMQ.Queue.MessageTTL == 0 {
		c.RabbitMQ.Queue.MessageTTL = DefaultQueueMessageTTL
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// ValidateMonitorConfig checks the settings used by the monitor service
func (c *Config) ValidateMonitorConfig() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.App.Name == "" {
		return errors.New("app name is required")
	}

	if c.RabbitMQ.Publish.Timeout < 0 {
		return errors.New("rabbitmq publish timeout must not be negative")
	}

	if c.RabbitMQ.Publish.RatePerSecond < 0 {
		return errors.New("rabbitmq publish rate_per_second must not be negative")
	}

	if c.Tasks.ScriptTimeout < 0 {
		return errors.New("tasks script_timeout must not be negative")
	}

	return nil
}

// ValidateCollectorConfig checks the settings used by the collector service
func (c *Config) ValidateCollectorConfig() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if c.Database.Host == "" {
		return errors.New("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return errors.New("database name is required")
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.RabbitMQ.Consumer.PrefetchCount < 0 {
		return errors.New("rabbitmq consumer prefetch_count must not be negative")
	}

	if c.Collector.Concurrency <= 0 {
		return errors.New("collector concurrency must be greater than 0")
	}

	if c.Collector.StoreTimeout <= 0 {
		return errors.New("collector store_timeout must be greater than 0")
	}

	if c.Collector.ShutdownTimeout <= 0 {
		return errors.New("collector shutdown_timeout must be greater than 0")
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}
	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return errors.New("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return errors.New("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return errors.New("rabbitmq queue name is required")
	}

	if c.RabbitMQ.Queue.MessageTTL < 0 {
		return errors.New("rabbitmq queue message_ttl must not be negative")
	}

	return nil
}
