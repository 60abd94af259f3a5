package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registration/internal/constants"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
server:
  port: 8080
database:
  mongodb:
    uri: mongodb://localhost:27017
  redis:
    host: localhost
    port: 6379
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, constants.ArchivePolicyDegrade, cfg.Workflow.ArchivePolicy)
	assert.Equal(t, constants.DefaultStepTimeout, cfg.Workflow.StepTimeout)
	assert.Equal(t, constants.DefaultMaxReceiveCount, cfg.Queue.MaxReceiveCount)
	assert.Equal(t, constants.DefaultVisibilityWindow, cfg.Queue.VisibilityTimeout)
	assert.Equal(t, constants.DefaultMongoDBName, cfg.Database.MongoDB.Database)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Routing.Rules)
}

func TestLoadFullConfig(t *testing.T) {
	content := minimalConfig + `
broker:
  type: kafka
  kafka:
    brokers:
      - kafka-1:9092
      - kafka-2:9092
    mirror_topic: registration.events
    queue_topic: registration.provisioning
workflow:
  archive_policy: strict
  step_timeout: 10s
  redrive:
    max_attempts: 3
    initial_interval: 100ms
    max_interval: 2s
    multiplier: 2.0
queue:
  max_receive_count: 5
  visibility_timeout: 45s
routing:
  rules:
    - listen_bus: company-bus
      source: CustomerCreated
      detail_type: Customer.RegistrationService
      targets:
        - type: bus
          name: registration-local-bus
`

	cfg, err := Load(writeConfigFile(t, content))
	require.NoError(t, err)

	assert.Equal(t, "kafka", cfg.Broker.Type)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, "registration.events", cfg.Broker.Kafka.MirrorTopic)
	assert.Equal(t, constants.ArchivePolicyStrict, cfg.Workflow.ArchivePolicy)
	assert.Equal(t, 10*time.Second, cfg.Workflow.StepTimeout)
	assert.Equal(t, 3, cfg.Workflow.Redrive.MaxAttempts)
	assert.Equal(t, 5, cfg.Queue.MaxReceiveCount)
	assert.Equal(t, 45*time.Second, cfg.Queue.VisibilityTimeout)

	require.Len(t, cfg.Routing.Rules, 1)
	rule := cfg.Routing.Rules[0]
	assert.Equal(t, "company-bus", rule.ListenBus)
	assert.Equal(t, "CustomerCreated", rule.Source)
	require.Len(t, rule.Targets, 1)
	assert.Equal(t, "bus", rule.Targets[0].Type)
	assert.Equal(t, "registration-local-bus", rule.Targets[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	content := minimalConfig + `
workflow:
  archive_policy: maybe
`
	_, err := Load(writeConfigFile(t, content))
	assert.Error(t, err)
}
