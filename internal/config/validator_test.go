package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"registration/internal/constants"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			MongoDB: MongoDBConfig{URI: "mongodb://localhost:27017"},
			Redis:   RedisConfig{Host: "localhost", Port: 6379},
		},
		Workflow: WorkflowConfig{
			ArchivePolicy: constants.ArchivePolicyDegrade,
			StepTimeout:   5 * time.Second,
		},
		Queue: QueueConfig{
			MaxReceiveCount:   3,
			VisibilityTimeout: 30 * time.Second,
		},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "missing mongodb uri",
			mutate:  func(c *Config) { c.Database.MongoDB.URI = "" },
			wantErr: true,
		},
		{
			name:    "missing redis host",
			mutate:  func(c *Config) { c.Database.Redis.Host = "" },
			wantErr: true,
		},
		{
			name:   "broker type none",
			mutate: func(c *Config) { c.Broker.Type = "none" },
		},
		{
			name: "kafka broker without addresses",
			mutate: func(c *Config) {
				c.Broker.Type = "kafka"
			},
			wantErr: true,
		},
		{
			name: "kafka broker with addresses",
			mutate: func(c *Config) {
				c.Broker.Type = "kafka"
				c.Broker.Kafka.Brokers = []string{"localhost:9092"}
			},
		},
		{
			name:    "unknown broker type",
			mutate:  func(c *Config) { c.Broker.Type = "rabbitmq" },
			wantErr: true,
		},
		{
			name:    "unknown archive policy",
			mutate:  func(c *Config) { c.Workflow.ArchivePolicy = "maybe" },
			wantErr: true,
		},
		{
			name:   "strict archive policy",
			mutate: func(c *Config) { c.Workflow.ArchivePolicy = constants.ArchivePolicyStrict },
		},
		{
			name:    "zero step timeout",
			mutate:  func(c *Config) { c.Workflow.StepTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero max receive count",
			mutate:  func(c *Config) { c.Queue.MaxReceiveCount = 0 },
			wantErr: true,
		},
		{
			name: "valid routing rule",
			mutate: func(c *Config) {
				c.Routing.Rules = []RoutingRuleConfig{{
					ListenBus:  "company-bus",
					Source:     "CustomerCreated",
					DetailType: "Customer.RegistrationService",
					Targets:    []RouteTargetConfig{{Type: "queue", Name: "customer-provisioning"}},
				}}
			},
		},
		{
			name: "routing rule without listen bus",
			mutate: func(c *Config) {
				c.Routing.Rules = []RoutingRuleConfig{{
					Source:     "CustomerCreated",
					DetailType: "Customer.RegistrationService",
				}}
			},
			wantErr: true,
		},
		{
			name: "routing rule with bad target type",
			mutate: func(c *Config) {
				c.Routing.Rules = []RoutingRuleConfig{{
					ListenBus:  "company-bus",
					Source:     "CustomerCreated",
					DetailType: "Customer.RegistrationService",
					Targets:    []RouteTargetConfig{{Type: "topic", Name: "x"}},
				}}
			},
			wantErr: true,
		},
		{
			name: "routing rule with unnamed target",
			mutate: func(c *Config) {
				c.Routing.Rules = []RoutingRuleConfig{{
					ListenBus:  "company-bus",
					Source:     "CustomerCreated",
					DetailType: "Customer.RegistrationService",
					Targets:    []RouteTargetConfig{{Type: "queue"}},
				}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
