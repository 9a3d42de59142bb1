package arena

import (
	"context"
	"fmt"

	"smarena/internal/broker"
	"smarena/internal/logger"
	"smarena/pkg/metrics"
	"smarena/pkg/tracing"
)

// Sender delivers events over one publisher. It is owned by a single worker.
type Sender struct {
	publisher broker.Publisher
	logger    logger.Logger
}

func NewSender(publisher broker.Publisher, log logger.Logger) *Sender {
	return &Sender{publisher: publisher, logger: log}
}

func (s *Sender) Send(ctx context.Context, event *ArenaSykmelding) error {
	ctx, span := tracing.GetTracer("arena").Start(ctx, "arena.send")
	defer span.End()

	body, err := Marshal(event)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal arena sykmelding: %w", err)
	}

	headers := map[string]string{
		"dokumentreferanse": event.EiaDokumentInfo.DokumentInfo.Dokumentreferanse,
	}
	if err := s.publisher.Publish(ctx, body, headers); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to send arena sykmelding: %w", err)
	}

	metrics.IncEventSent()
	s.logger.InfowCtx(ctx, "Message is sent to arena")
	return nil
}

func (s *Sender) Close() error {
	return s.publisher.Close()
}
