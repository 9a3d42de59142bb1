package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"smarena/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	// .env is optional and only used for local runs
	_ = godotenv.Load()

	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", "10s")
	viper.SetDefault("server.write_timeout_seconds", "10s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("broker.kafka.arena_input_topic", constants.DefaultArenaInputTopic)
	viper.SetDefault("broker.kafka.journal_created_topic", constants.DefaultJournalCreatedTopic)
	viper.SetDefault("broker.rabbitmq.queue", constants.DefaultArenaQueue)
	viper.SetDefault("broker.rabbitmq.vhost", "/")

	viper.SetDefault("broker.connect.max_attempts", 5)
	viper.SetDefault("broker.connect.initial_interval", "1s")
	viper.SetDefault("broker.connect.max_interval", "30s")
	viper.SetDefault("broker.connect.multiplier", 2.0)

	viper.SetDefault("join.window_before", constants.DefaultJoinWindowBefore)
	viper.SetDefault("join.grace", constants.DefaultJoinGrace)
	viper.SetDefault("join.manual_handling_filter", "false")

	viper.SetDefault("arena.workers", 1)
	viper.SetDefault("arena.poll_delay", constants.DefaultPollDelay)

	viper.SetDefault("tss.timeout", constants.DefaultHTTPTimeout)
	viper.SetDefault("tss.cache_ttl", constants.DefaultTSSCacheTTL)

	viper.SetDefault("rate_limit.rps", constants.DefaultRateLimitRPS)
	viper.SetDefault("rate_limit.burst", constants.DefaultRateLimitBurst)
	viper.SetDefault("rate_limit.cleanup_interval", "5m")
	viper.SetDefault("rate_limit.max_age", constants.DefaultRateLimitMaxAge)
}

func bindEnvVariables() {
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.sykmelding_topics", "BROKER_KAFKA_SYKMELDING_TOPICS")
	viper.BindEnv("broker.kafka.journal_created_topic", "BROKER_KAFKA_JOURNAL_CREATED_TOPIC")
	viper.BindEnv("broker.kafka.arena_input_topic", "BROKER_KAFKA_ARENA_INPUT_TOPIC")

	viper.BindEnv("broker.rabbitmq.host", "BROKER_RABBITMQ_HOST")
	viper.BindEnv("broker.rabbitmq.port", "BROKER_RABBITMQ_PORT")
	viper.BindEnv("broker.rabbitmq.user", "BROKER_RABBITMQ_USER")
	viper.BindEnv("broker.rabbitmq.password", "BROKER_RABBITMQ_PASSWORD")
	viper.BindEnv("broker.rabbitmq.queue", "BROKER_RABBITMQ_QUEUE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("tss.url", "TSS_URL")
	viper.BindEnv("tss.token", "TSS_TOKEN")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("arena.workers", "ARENA_WORKERS")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if brokers := splitList(viper.GetString("BROKER_KAFKA_BROKERS")); len(brokers) > 0 {
		cfg.Broker.Kafka.Brokers = brokers
	}

	if topics := splitList(viper.GetString("BROKER_KAFKA_SYKMELDING_TOPICS")); len(topics) > 0 {
		cfg.Broker.Kafka.SykmeldingTopics = topics
	}

	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
