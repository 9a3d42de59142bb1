package arena

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smarena/internal/broker"
	"smarena/internal/logger"
	"smarena/internal/rules"
	"smarena/internal/tss"
	"smarena/pkg/logging"
	"smarena/pkg/metrics"
	"smarena/pkg/models"
	"smarena/pkg/tracing"
)

// EventSender is what the service needs from Sender.
type EventSender interface {
	Send(ctx context.Context, event *ArenaSykmelding) error
}

// Service handles joined records: it evaluates the rule chain and sends one
// event per record that matched at least one rule.
type Service struct {
	evaluator *rules.Evaluator
	resolver  tss.Resolver
	sender    EventSender
	logger    logger.Logger
}

func NewService(evaluator *rules.Evaluator, resolver tss.Resolver, sender EventSender, log logger.Logger) *Service {
	return &Service{
		evaluator: evaluator,
		resolver:  resolver,
		sender:    sender,
		logger:    log,
	}
}

// HandleMessage is the worker handler. Every error it returns is fatal for the
// worker and leaves the record uncommitted.
func (s *Service) HandleMessage(ctx context.Context, msg broker.Message) error {
	start := time.Now()
	status, err := s.handle(ctx, msg.Value)
	if err != nil {
		status = "error"
	}
	metrics.ObserveArenaDuration(time.Since(start), status)
	return err
}

func (s *Service) handle(ctx context.Context, value []byte) (string, error) {
	ctx, span := tracing.GetTracer("arena").Start(ctx, "arena.handle")
	defer span.End()

	joined, err := models.DecodeJoinedRecord(value)
	if err != nil {
		return "", err
	}

	received, err := models.DecodeReceivedSykmelding(joined.ReceivedSykmelding)
	if err != nil {
		return "", err
	}

	ctx = logging.WithLoggingMeta(ctx, logging.LoggingMeta{
		MottakID:     received.NavLogID,
		OrgNr:        received.OrgNr(),
		MsgID:        received.MsgID,
		SykmeldingID: received.Sykmelding.ID,
	})
	s.logger.InfowCtx(ctx, "Received a SM2013, going to Arena rules")

	hits, err := s.evaluator.Evaluate(ctx, received.Sykmelding, rules.MetadataFor(*received))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate rules: %w", err)
	}

	if len(hits) == 0 {
		s.logger.InfowCtx(ctx, "Message is NOT sent to arena")
		return "not_sent", nil
	}
	s.logger.InfowCtx(ctx, "Rules hit", "rule_hits", rules.Names(hits))

	tssID, err := s.senderID(ctx, received)
	if err != nil {
		return "", err
	}

	event, err := CreateArenaSykmelding(*received, hits, joined.JournalpostID, tssID)
	if err != nil {
		return "", fmt.Errorf("failed to map arena sykmelding: %w", err)
	}

	if err := s.sender.Send(ctx, event); err != nil {
		return "", err
	}
	return "sent", nil
}

// senderID prefers the id already on the record and only asks the lookup
// service when it is blank.
func (s *Service) senderID(ctx context.Context, received *models.ReceivedSykmelding) (string, error) {
	if id := strings.TrimSpace(models.StringValue(received.TSSID)); id != "" {
		return id, nil
	}
	if s.resolver == nil {
		return "", nil
	}

	id, err := s.resolver.Resolve(ctx, received.PersonNrLege, received.LegekontorOrgName, received.MsgID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve tssid: %w", err)
	}
	return id, nil
}

