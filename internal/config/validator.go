package config

import (
	"errors"
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateStatic checks the settings shared by every service.
func ValidateStatic(cfg *Config) error {
	var errs []error

	if err := validateServer(cfg.Server); err != nil {
		errs = append(errs, err)
	}

	if err := validateKafka(cfg.Broker.Kafka); err != nil {
		errs = append(errs, err)
	}

	if err := validateRetry(cfg.Broker.Connect); err != nil {
		errs = append(errs, err)
	}

	if cfg.Database.Redis.Host != "" || cfg.Database.Redis.Port > 0 {
		if err := validateRedis(cfg.Database.Redis); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// ValidateArena checks the settings the arena worker needs on top of ValidateStatic.
func ValidateArena(cfg *Config) error {
	var errs []error

	if cfg.Broker.Kafka.ArenaInputTopic == "" {
		errs = append(errs, &ValidationError{
			Field:   "broker.kafka.arena_input_topic",
			Message: "arena input topic is required",
		})
	}

	if err := validateRabbitMQ(cfg.Broker.RabbitMQ); err != nil {
		errs = append(errs, err)
	}

	if err := validateTSS(cfg.TSS); err != nil {
		errs = append(errs, err)
	}

	if cfg.Arena.Workers < 1 {
		errs = append(errs, &ValidationError{
			Field:   "arena.workers",
			Message: fmt.Sprintf("at least one worker is required, got %d", cfg.Arena.Workers),
		})
	}

	if cfg.Arena.PollDelay < 0 {
		errs = append(errs, &ValidationError{
			Field:   "arena.poll_delay",
			Message: "poll delay must be non-negative",
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateJoin checks the settings the join stage needs on top of ValidateStatic.
func ValidateJoin(cfg *Config) error {
	var errs []error

	if len(cfg.Broker.Kafka.SykmeldingTopics) == 0 {
		errs = append(errs, &ValidationError{
			Field:   "broker.kafka.sykmelding_topics",
			Message: "at least one sykmelding topic is required",
		})
	}

	if cfg.Broker.Kafka.JournalCreatedTopic == "" {
		errs = append(errs, &ValidationError{
			Field:   "broker.kafka.journal_created_topic",
			Message: "journal created topic is required",
		})
	}

	if cfg.Broker.Kafka.ArenaInputTopic == "" {
		errs = append(errs, &ValidationError{
			Field:   "broker.kafka.arena_input_topic",
			Message: "arena input topic is required",
		})
	}

	if cfg.Database.Redis.Host == "" {
		errs = append(errs, &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis is required for the join state",
		})
	}

	if cfg.Join.WindowBefore < 0 {
		errs = append(errs, &ValidationError{
			Field:   "join.window_before",
			Message: "window_before must be non-negative",
		})
	}

	if cfg.Join.Grace <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "join.grace",
			Message: "grace must be positive",
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
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

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	return nil
}

func validateRetry(cfg RetryConfig) error {
	if cfg.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "broker.connect.max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.MaxInterval > 0 && cfg.InitialInterval > 0 && cfg.MaxInterval < cfg.InitialInterval {
		return &ValidationError{
			Field:   "broker.connect.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Multiplier <= 0 {
		return &ValidationError{
			Field:   "broker.connect.multiplier",
			Message: "multiplier must be positive",
		}
	}

	return nil
}

func validateRabbitMQ(cfg RabbitMQConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "broker.rabbitmq.host",
			Message: "RabbitMQ host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "broker.rabbitmq.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.Queue == "" {
		return &ValidationError{
			Field:   "broker.rabbitmq.queue",
			Message: "arena queue name is required",
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateTSS(cfg TSSConfig) error {
	if cfg.URL == "" {
		return &ValidationError{
			Field:   "tss.url",
			Message: "TSS resolver URL is required",
		}
	}

	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{
			Field:   "tss.url",
			Message: fmt.Sprintf("invalid URL: %s", cfg.URL),
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "tss.timeout",
			Message: "timeout must be positive",
		}
	}

	return nil
}

// AMQPURL builds the connection string for the outbound queue.
func (c RabbitMQConfig) AMQPURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.VHost,
	}
	return u.String()
}
