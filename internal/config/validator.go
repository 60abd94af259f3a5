package config

import (
	"fmt"

	"registration/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateWorkflow(cfg.Workflow); err != nil {
		errors = append(errors, err)
	}

	if err := validateQueue(cfg.Queue); err != nil {
		errors = append(errors, err)
	}

	if err := validateRouting(cfg.Routing); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.MongoDB.URI == "" {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "mongodb uri is required for the customer record store",
		}
	}

	if cfg.Redis.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "redis host is required for the payload archive",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	switch cfg.Type {
	case "", "none":
		return nil
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return &ValidationError{
				Field:   "broker.kafka.brokers",
				Message: "at least one kafka broker is required",
			}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type %q", cfg.Type),
		}
	}
}

func validateWorkflow(cfg WorkflowConfig) error {
	switch cfg.ArchivePolicy {
	case constants.ArchivePolicyDegrade, constants.ArchivePolicyStrict:
	default:
		return &ValidationError{
			Field:   "workflow.archive_policy",
			Message: fmt.Sprintf("archive policy must be %q or %q, got %q", constants.ArchivePolicyDegrade, constants.ArchivePolicyStrict, cfg.ArchivePolicy),
		}
	}

	if cfg.StepTimeout <= 0 {
		return &ValidationError{
			Field:   "workflow.step_timeout",
			Message: "step timeout must be positive",
		}
	}

	return nil
}

func validateQueue(cfg QueueConfig) error {
	if cfg.MaxReceiveCount < 1 {
		return &ValidationError{
			Field:   "queue.max_receive_count",
			Message: fmt.Sprintf("max receive count must be at least 1, got %d", cfg.MaxReceiveCount),
		}
	}

	return nil
}

func validateRouting(cfg RoutingConfig) error {
	for i, rule := range cfg.Rules {
		if rule.ListenBus == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("routing.rules[%d].listen_bus", i),
				Message: "listen bus is required",
			}
		}
		if rule.Source == "" || rule.DetailType == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("routing.rules[%d]", i),
				Message: "source and detail_type are required",
			}
		}
		for j, target := range rule.Targets {
			if target.Type != "bus" && target.Type != "queue" {
				return &ValidationError{
					Field:   fmt.Sprintf("routing.rules[%d].targets[%d].type", i, j),
					Message: fmt.Sprintf("target type must be \"bus\" or \"queue\", got %q", target.Type),
				}
			}
			if target.Name == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("routing.rules[%d].targets[%d].name", i, j),
					Message: "target name is required",
				}
			}
		}
	}

	return nil
}
