package join

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"smarena/internal/broker"
	"smarena/internal/config"
	"smarena/internal/logger"
	"smarena/pkg/cel"
	"smarena/pkg/logging"
	"smarena/pkg/metrics"
	"smarena/pkg/models"
	"smarena/pkg/tracing"
)

// Outcomes reported on smarena_join_records_total.
const (
	outcomePending   = "pending"
	outcomeJoined    = "joined"
	outcomeDuplicate = "duplicate"
	outcomeLate      = "late"
	outcomeManual    = "manual"
	outcomeInvalid   = "invalid"
	outcomeIgnored   = "ignored"
)

// Service pairs sykmelding records with their journal events and publishes
// one JoinedRecord per key to the arena input topic.
type Service struct {
	repo     Repository
	producer broker.Producer
	filter   *cel.Filter
	window   Window
	topics   config.KafkaConfig
	logger   logger.Logger
}

// NewService builds the join stage. A nil filter lets every record in.
func NewService(repo Repository, producer broker.Producer, filter *cel.Filter, window Window, topics config.KafkaConfig, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		producer: producer,
		filter:   filter,
		window:   window,
		topics:   topics,
		logger:   log,
	}
}

// HandleMessage routes one input by topic. Malformed inputs are logged and
// skipped; state store and producer failures are returned.
func (s *Service) HandleMessage(ctx context.Context, msg broker.Message) error {
	ctx, span := tracing.GetTracer("join").Start(ctx, "join.handle")
	defer span.End()
	key := string(msg.Key)
	span.SetAttributes(
		attribute.String("messaging.destination", msg.Topic),
		attribute.String("join.key", key),
	)

	if key == "" {
		s.logger.WarnwCtx(ctx, "Skipping message without key", "topic", msg.Topic, "offset", msg.Offset)
		metrics.IncJoinRecord(s.sideOf(msg.Topic), outcomeInvalid)
		return nil
	}
	ctx = logging.WithLoggingMeta(ctx, logging.LoggingMeta{SykmeldingID: key})

	var err error
	switch {
	case msg.Topic == s.topics.JournalCreatedTopic:
		err = s.handleJournal(ctx, key, msg)
	case slices.Contains(s.topics.SykmeldingTopics, msg.Topic):
		err = s.handleRecord(ctx, key, msg)
	default:
		s.logger.WarnwCtx(ctx, "Skipping message from unknown topic", "topic", msg.Topic)
		metrics.IncJoinRecord("unknown", outcomeIgnored)
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Service) sideOf(topic string) string {
	if topic == s.topics.JournalCreatedTopic {
		return string(SideJournal)
	}
	return string(SideRecord)
}

func (s *Service) handleRecord(ctx context.Context, key string, msg broker.Message) error {
	received, err := models.DecodeReceivedSykmelding(msg.Value)
	if err != nil {
		s.logger.WarnwCtx(ctx, "Skipping malformed sykmelding", "error", err)
		metrics.IncJoinRecord(string(SideRecord), outcomeInvalid)
		return nil
	}
	ctx = logging.WithLoggingMeta(ctx, logging.LoggingMeta{
		MottakID:     received.NavLogID,
		OrgNr:        received.OrgNr(),
		MsgID:        received.MsgID,
		SykmeldingID: key,
	})

	manual, err := s.underManualHandling(ctx, key, msg)
	if err != nil {
		return err
	}
	if manual {
		s.logger.InfowCtx(ctx, "Sykmelding is under manual handling, not joining")
		metrics.IncJoinRecord(string(SideRecord), outcomeManual)
		return nil
	}

	joined, err := s.repo.IsJoined(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check join state: %w", err)
	}
	if joined {
		s.logger.InfowCtx(ctx, "Sykmelding already joined, ignoring duplicate")
		metrics.IncJoinRecord(string(SideRecord), outcomeDuplicate)
		return nil
	}

	record := Entry{Value: msg.Value, Timestamp: msg.Time}
	journal, err := s.repo.Pending(ctx, SideJournal, key)
	if err != nil {
		return fmt.Errorf("failed to read pending journal: %w", err)
	}
	if journal == nil {
		if err := s.repo.SavePending(ctx, SideRecord, key, record, s.window.TTL()); err != nil {
			return fmt.Errorf("failed to store pending sykmelding: %w", err)
		}
		metrics.IncJoinRecord(string(SideRecord), outcomePending)
		return nil
	}

	return s.join(ctx, key, record, *journal, SideRecord)
}

func (s *Service) handleJournal(ctx context.Context, key string, msg broker.Message) error {
	if _, err := models.DecodeRegisterJournal(msg.Value); err != nil {
		s.logger.WarnwCtx(ctx, "Skipping malformed journal event", "error", err)
		metrics.IncJoinRecord(string(SideJournal), outcomeInvalid)
		return nil
	}

	joined, err := s.repo.IsJoined(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check join state: %w", err)
	}
	if joined {
		s.logger.InfowCtx(ctx, "Journal event for already joined sykmelding, ignoring")
		metrics.IncJoinRecord(string(SideJournal), outcomeDuplicate)
		return nil
	}

	journal := Entry{Value: msg.Value, Timestamp: msg.Time}
	record, err := s.repo.Pending(ctx, SideRecord, key)
	if err != nil {
		return fmt.Errorf("failed to read pending sykmelding: %w", err)
	}
	if record == nil {
		existing, err := s.repo.Pending(ctx, SideJournal, key)
		if err != nil {
			return fmt.Errorf("failed to read pending journal: %w", err)
		}
		if existing != nil {
			s.logger.InfowCtx(ctx, "Journal event already pending, ignoring duplicate")
			metrics.IncJoinRecord(string(SideJournal), outcomeDuplicate)
			return nil
		}
		if err := s.repo.SavePending(ctx, SideJournal, key, journal, s.window.TTL()); err != nil {
			return fmt.Errorf("failed to store pending journal: %w", err)
		}
		metrics.IncJoinRecord(string(SideJournal), outcomePending)
		return nil
	}

	return s.join(ctx, key, *record, journal, SideJournal)
}

// join emits the pair unless it falls outside the window or the key was
// already claimed. Outside the window the stale pending side is dropped and
// the arriving side waits for a new partner. A failed publish releases the
// claim so redelivery can retry.
func (s *Service) join(ctx context.Context, key string, record, journal Entry, arrived Side) error {
	if err := s.window.Check(record.Timestamp, journal.Timestamp); err != nil {
		s.logger.InfowCtx(ctx, "Pending side outside join window, replacing it", "error", err, "arrived", arrived)
		metrics.IncJoinRecord(string(arrived), outcomeLate)
		if err := s.repo.DeletePending(ctx, key, arrived.other()); err != nil {
			return fmt.Errorf("failed to discard stale %s: %w", arrived.other(), err)
		}
		entry := record
		if arrived == SideJournal {
			entry = journal
		}
		if err := s.repo.SavePending(ctx, arrived, key, entry, s.window.TTL()); err != nil {
			return fmt.Errorf("failed to store pending %s: %w", arrived, err)
		}
		return nil
	}

	registered, err := models.DecodeRegisterJournal(journal.Value)
	if err != nil {
		return fmt.Errorf("failed to decode pending journal: %w", err)
	}

	claimed, err := s.repo.MarkJoined(ctx, key, s.window.TTL())
	if err != nil {
		return fmt.Errorf("failed to mark joined: %w", err)
	}
	if !claimed {
		metrics.IncJoinRecord(string(arrived), outcomeDuplicate)
		return nil
	}

	value, err := json.Marshal(models.JoinedRecord{
		ReceivedSykmelding: record.Value,
		JournalpostID:      registered.JournalpostID,
	})
	if err != nil {
		return s.release(ctx, key, fmt.Errorf("failed to encode joined record: %w", err))
	}

	err = s.producer.Publish(ctx, broker.Message{
		Topic: s.topics.ArenaInputTopic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return s.release(ctx, key, fmt.Errorf("failed to publish joined record: %w", err))
	}

	if err := s.repo.DeletePending(ctx, key); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to clean up pending state", "error", err)
	}

	metrics.IncJoinRecord(string(arrived), outcomeJoined)
	s.logger.InfowCtx(ctx, "Sykmelding joined with journal", "journalpost_id", registered.JournalpostID)
	return nil
}

func (s *Service) release(ctx context.Context, key string, cause error) error {
	if err := s.repo.UnmarkJoined(ctx, key); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to release join claim: %w", err))
	}
	return cause
}

func (s *Service) underManualHandling(ctx context.Context, key string, msg broker.Message) (bool, error) {
	if s.filter == nil {
		return false, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return false, fmt.Errorf("failed to decode sykmelding payload: %w", err)
	}

	matched, err := s.filter.Matches(ctx, cel.Input{
		Key:       key,
		Topic:     msg.Topic,
		Timestamp: msg.Time,
		Payload:   payload,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate manual handling filter: %w", err)
	}
	return matched, nil
}

// CompileManualHandlingFilter returns nil for an empty or constant false
// expression so the filter step is skipped.
func CompileManualHandlingFilter(expression string) (*cel.Filter, error) {
	if expression == "" || expression == "false" {
		return nil, nil
	}

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	return evaluator.CompileFilter(expression)
}
