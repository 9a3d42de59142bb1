package broker

import (
	"smarena/internal/config"
	"smarena/internal/constants"
	"smarena/internal/logger"
)

// NewJoinConsumer reads every sykmelding topic together with the journal topic.
func NewJoinConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	topics := make([]string, 0, len(cfg.SykmeldingTopics)+1)
	topics = append(topics, cfg.SykmeldingTopics...)
	topics = append(topics, cfg.JournalCreatedTopic)
	return NewKafkaConsumer(cfg, topics, constants.ServiceNameJoin, constants.DefaultPollDelay, log)
}

// NewArenaConsumer reads the joined records. Call it once per worker.
func NewArenaConsumer(cfg *config.Config, log logger.Logger) *KafkaConsumer {
	return NewKafkaConsumer(
		cfg.Broker.Kafka,
		[]string{cfg.Broker.Kafka.ArenaInputTopic},
		constants.ServiceNameArena,
		cfg.Arena.PollDelay,
		log,
	)
}

func NewProducer(cfg config.KafkaConfig, serviceName string, log logger.Logger) Producer {
	return NewKafkaProducer(cfg, serviceName, log)
}
