package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarena/internal/constants"
)

func TestLoadConfig(t *testing.T) {
	t.Run("arena service", func(t *testing.T) {
		cfg, err := LoadConfig("testdata/arena.yaml")
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Broker.Kafka.Brokers)
		assert.Equal(t, "arena.sykmelding", cfg.Broker.RabbitMQ.Queue)
		assert.Equal(t, 2, cfg.Arena.Workers)
		assert.Equal(t, 250*time.Millisecond, cfg.Arena.PollDelay)
		assert.Equal(t, 5*time.Second, cfg.TSS.Timeout)
		assert.Equal(t, constants.DefaultTSSCacheTTL, cfg.TSS.CacheTTL)
		assert.Equal(t, constants.DefaultJoinGrace, cfg.Join.Grace)
		assert.NoError(t, ValidateArena(cfg))
	})

	t.Run("join service", func(t *testing.T) {
		cfg, err := LoadConfig("testdata/join.yaml")
		require.NoError(t, err)

		assert.Len(t, cfg.Broker.Kafka.SykmeldingTopics, 2)
		assert.Equal(t, constants.DefaultJoinWindowBefore, cfg.Join.WindowBefore)
		assert.Contains(t, cfg.Join.ManualHandlingFilter, "UNDER_BEHANDLING")
		assert.NoError(t, ValidateJoin(cfg))
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("BROKER_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
		t.Setenv("TSS_URL", "http://smtss.override")

		cfg, err := LoadConfig("testdata/arena.yaml")
		require.NoError(t, err)

		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Broker.Kafka.Brokers)
		assert.Equal(t, "http://smtss.override", cfg.TSS.URL)
	})

	t.Run("invalid file", func(t *testing.T) {
		_, err := LoadConfig("testdata/invalid.yaml")
		require.Error(t, err)

		var validationErr *ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig("testdata/does-not-exist.yaml")
		assert.Error(t, err)
	})
}

func TestValidateArena(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Broker: BrokerConfig{
				Kafka: KafkaConfig{ArenaInputTopic: "arena-input"},
				RabbitMQ: RabbitMQConfig{
					Host:  "localhost",
					Port:  5672,
					Queue: "arena.sykmelding",
				},
			},
			TSS:   TSSConfig{URL: "http://smtss", Timeout: time.Second},
			Arena: ArenaConfig{Workers: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:   "missing queue",
			mutate: func(c *Config) { c.Broker.RabbitMQ.Queue = "" },
			field:  "broker.rabbitmq.queue",
		},
		{
			name:   "bad tss url",
			mutate: func(c *Config) { c.TSS.URL = "smtss" },
			field:  "tss.url",
		},
		{
			name:   "no workers",
			mutate: func(c *Config) { c.Arena.Workers = 0 },
			field:  "arena.workers",
		},
		{
			name:   "missing input topic",
			mutate: func(c *Config) { c.Broker.Kafka.ArenaInputTopic = "" },
			field:  "broker.kafka.arena_input_topic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := ValidateArena(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestValidateJoin(t *testing.T) {
	cfg := &Config{
		Broker: BrokerConfig{Kafka: KafkaConfig{
			SykmeldingTopics:    []string{"sm2013"},
			JournalCreatedTopic: "journal",
			ArenaInputTopic:     "arena-input",
		}},
		Database: DatabaseConfig{Redis: RedisConfig{Host: "localhost", Port: 6379}},
		Join:     JoinConfig{WindowBefore: 14 * 24 * time.Hour, Grace: 31 * 24 * time.Hour},
	}
	assert.NoError(t, ValidateJoin(cfg))

	cfg.Join.Grace = 0
	err := ValidateJoin(cfg)
	require.Error(t, err)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "join.grace", validationErr.Field)
}

func TestAMQPURL(t *testing.T) {
	cfg := RabbitMQConfig{Host: "mq", Port: 5672, User: "srv", Password: "secret", VHost: "/"}
	assert.Equal(t, "amqp://srv:secret@mq:5672/", cfg.AMQPURL())
}
