package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Broker         BrokerConfig
	Logging        LoggingConfig
	Workflow       WorkflowConfig
	Queue          QueueConfig
	Routing        RoutingConfig
	CircuitBreaker CircuitBreakerConfig
	RateLimit      RateLimitConfig
	Tracing        TracingConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	MongoDB MongoDBConfig
	Redis   RedisConfig
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	MirrorTopic string   `mapstructure:"mirror_topic"`
	QueueTopic  string   `mapstructure:"queue_topic"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// WorkflowConfig controls the registration saga. ArchivePolicy resolves the
// open policy choice for ArchiveObject failures: "degrade" keeps going and
// surfaces a partial success, "strict" fails the workflow.
type WorkflowConfig struct {
	ArchivePolicy string        `mapstructure:"archive_policy"`
	StepTimeout   time.Duration `mapstructure:"step_timeout"`
	Redrive       RedriveConfig `mapstructure:"redrive"`
}

type RedriveConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type QueueConfig struct {
	MaxReceiveCount   int           `mapstructure:"max_receive_count"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout"`
}

type RoutingConfig struct {
	Rules []RoutingRuleConfig `mapstructure:"rules"`
}

type RoutingRuleConfig struct {
	ListenBus  string              `mapstructure:"listen_bus"`
	Source     string              `mapstructure:"source"`
	DetailType string              `mapstructure:"detail_type"`
	Targets    []RouteTargetConfig `mapstructure:"targets"`
}

type RouteTargetConfig struct {
	Type string `mapstructure:"type"` // "bus" or "queue"
	Name string `mapstructure:"name"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}
