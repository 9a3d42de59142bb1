package join

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarena/internal/broker"
	"smarena/internal/config"
	"smarena/internal/logger"
	"smarena/pkg/models"
)

const (
	topicAutomatic = "privat-syfo-sm2013-automatiskBehandling"
	topicManual    = "privat-syfo-sm2013-manuellBehandling"
	topicJournal   = "aapen-syfo-oppgave-journalOpprettet"
	topicOutput    = "privat-syfo-sm2013-arena-input"
)

var t0 = time.Date(2019, time.January, 2, 11, 0, 0, 0, time.UTC)

type memoryRepository struct {
	mu      sync.Mutex
	pending map[Side]map[string]Entry
	done    map[string]bool
	err     error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		pending: map[Side]map[string]Entry{SideRecord: {}, SideJournal: {}},
		done:    map[string]bool{},
	}
}

func (r *memoryRepository) SavePending(_ context.Context, side Side, key string, entry Entry, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.pending[side][key] = entry
	return nil
}

func (r *memoryRepository) Pending(_ context.Context, side Side, key string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	entry, ok := r.pending[side][key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *memoryRepository) DeletePending(_ context.Context, key string, sides ...Side) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(sides) == 0 {
		sides = []Side{SideRecord, SideJournal}
	}
	for _, side := range sides {
		delete(r.pending[side], key)
	}
	return nil
}

func (r *memoryRepository) MarkJoined(_ context.Context, key string, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done[key] {
		return false, nil
	}
	r.done[key] = true
	return true, nil
}

func (r *memoryRepository) UnmarkJoined(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.done, key)
	return nil
}

func (r *memoryRepository) IsJoined(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	return r.done[key], nil
}

type recordingProducer struct {
	messages []broker.Message
	err      error
}

func (p *recordingProducer) Publish(_ context.Context, msg broker.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func kafkaConfig() config.KafkaConfig {
	return config.KafkaConfig{
		SykmeldingTopics:    []string{topicAutomatic, topicManual},
		JournalCreatedTopic: topicJournal,
		ArenaInputTopic:     topicOutput,
	}
}

func newTestService(repo Repository, producer broker.Producer) *Service {
	window := Window{Before: 14 * 24 * time.Hour, Grace: 31 * 24 * time.Hour}
	return NewService(repo, producer, nil, window, kafkaConfig(), logger.NopLogger())
}

func recordMessage(t *testing.T, key string, at time.Time, merknader ...models.Merknad) broker.Message {
	t.Helper()
	value, err := json.Marshal(models.ReceivedSykmelding{
		Sykmelding: models.Sykmelding{ID: key, MsgID: "msg-" + key},
		MsgID:      "msg-" + key,
		NavLogID:   "0412",
		Merknader:  merknader,
	})
	require.NoError(t, err)
	return broker.Message{Topic: topicAutomatic, Key: []byte(key), Value: value, Time: at}
}

func journalMessage(t *testing.T, key, journalpostID string, at time.Time) broker.Message {
	t.Helper()
	value, err := json.Marshal(models.RegisterJournal{
		JournalpostKilde: "AS36",
		MessageID:        "msg-" + key,
		SakID:            "sak-1",
		JournalpostID:    journalpostID,
	})
	require.NoError(t, err)
	return broker.Message{Topic: topicJournal, Key: []byte(key), Value: value, Time: at}
}

func decodeJoined(t *testing.T, msg broker.Message) *models.JoinedRecord {
	t.Helper()
	joined, err := models.DecodeJoinedRecord(msg.Value)
	require.NoError(t, err)
	return joined
}

func TestJoinRecordThenJournal(t *testing.T) {
	repo := newMemoryRepository()
	producer := &recordingProducer{}
	svc := newTestService(repo, producer)
	ctx := context.Background()

	record := recordMessage(t, "sm-1", t0)
	require.NoError(t, svc.HandleMessage(ctx, record))
	assert.Empty(t, producer.messages)

	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "12355234", t0.Add(2*time.Hour))))

	require.Len(t, producer.messages, 1)
	out := producer.messages[0]
	assert.Equal(t, topicOutput, out.Topic)
	assert.Equal(t, []byte("sm-1"), out.Key)

	joined := decodeJoined(t, out)
	assert.Equal(t, "12355234", joined.JournalpostID)
	assert.Equal(t, record.Value, joined.ReceivedSykmelding)

	assert.Empty(t, repo.pending[SideRecord])
	assert.Empty(t, repo.pending[SideJournal])
	assert.True(t, repo.done["sm-1"])
}

func TestJoinJournalThenRecord(t *testing.T) {
	producer := &recordingProducer{}
	svc := newTestService(newMemoryRepository(), producer)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "1", t0)))
	record := recordMessage(t, "sm-1", t0.Add(24*time.Hour))
	require.NoError(t, svc.HandleMessage(ctx, record))

	require.Len(t, producer.messages, 1)
	assert.Equal(t, record.Value, decodeJoined(t, producer.messages[0]).ReceivedSykmelding)
}

func TestJoinFirstMatchWins(t *testing.T) {
	producer := &recordingProducer{}
	svc := newTestService(newMemoryRepository(), producer)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-1", t0)))
	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "first", t0.Add(time.Hour))))
	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "second", t0.Add(2*time.Hour))))
	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-1", t0.Add(3*time.Hour))))

	require.Len(t, producer.messages, 1)
	assert.Equal(t, "first", decodeJoined(t, producer.messages[0]).JournalpostID)
}

func TestJoinPendingJournalKeepsFirst(t *testing.T) {
	producer := &recordingProducer{}
	svc := newTestService(newMemoryRepository(), producer)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "first", t0)))
	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "second", t0.Add(time.Hour))))
	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-1", t0.Add(2*time.Hour))))

	require.Len(t, producer.messages, 1)
	assert.Equal(t, "first", decodeJoined(t, producer.messages[0]).JournalpostID)
}

func TestJoinLateJournalIsDropped(t *testing.T) {
	repo := newMemoryRepository()
	producer := &recordingProducer{}
	svc := newTestService(repo, producer)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-1", t0)))
	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "1", t0.Add(32*24*time.Hour))))

	assert.Empty(t, producer.messages)
	assert.Empty(t, repo.pending[SideRecord])
	assert.Contains(t, repo.pending[SideJournal], "sm-1")
	assert.False(t, repo.done["sm-1"])
}

func TestJoinEarlyJournalBeyondWindow(t *testing.T) {
	repo := newMemoryRepository()
	producer := &recordingProducer{}
	svc := newTestService(repo, producer)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "1", t0)))
	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-1", t0.Add(15*24*time.Hour))))

	assert.Empty(t, producer.messages)
	assert.Empty(t, repo.pending[SideJournal])
	assert.Contains(t, repo.pending[SideRecord], "sm-1")
}

func TestJoinStaleJournalKeepsRecordForLaterJournal(t *testing.T) {
	repo := newMemoryRepository()
	producer := &recordingProducer{}
	svc := newTestService(repo, producer)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "old", t0.Add(-20*24*time.Hour))))
	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-1", t0)))
	assert.Empty(t, producer.messages)

	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "new", t0.Add(24*time.Hour))))

	require.Len(t, producer.messages, 1)
	assert.Equal(t, "new", decodeJoined(t, producer.messages[0]).JournalpostID)
	assert.Empty(t, repo.pending[SideRecord])
	assert.Empty(t, repo.pending[SideJournal])
}

func TestJoinKeysAreIndependent(t *testing.T) {
	producer := &recordingProducer{}
	svc := newTestService(newMemoryRepository(), producer)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-1", t0)))
	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-2", "2", t0)))
	assert.Empty(t, producer.messages)

	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "1", t0)))
	require.Len(t, producer.messages, 1)
	assert.Equal(t, []byte("sm-1"), producer.messages[0].Key)
}

func TestJoinPublishFailureReleasesClaim(t *testing.T) {
	repo := newMemoryRepository()
	down := errors.New("broker down")
	producer := &recordingProducer{err: down}
	svc := newTestService(repo, producer)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-1", t0)))
	journal := journalMessage(t, "sm-1", "1", t0)
	err := svc.HandleMessage(ctx, journal)
	assert.ErrorIs(t, err, down)
	assert.False(t, repo.done["sm-1"])

	producer.err = nil
	require.NoError(t, svc.HandleMessage(ctx, journal))
	assert.Len(t, producer.messages, 1)
}

func TestJoinRepositoryErrorIsReturned(t *testing.T) {
	repo := newMemoryRepository()
	repo.err = errors.New("connection refused")
	svc := newTestService(repo, &recordingProducer{})

	err := svc.HandleMessage(context.Background(), recordMessage(t, "sm-1", t0))
	assert.ErrorIs(t, err, repo.err)
}

func TestJoinSkipsInvalidInput(t *testing.T) {
	repo := newMemoryRepository()
	producer := &recordingProducer{}
	svc := newTestService(repo, producer)
	ctx := context.Background()

	tests := []struct {
		name string
		msg  broker.Message
	}{
		{name: "record not json", msg: broker.Message{Topic: topicManual, Key: []byte("sm-1"), Value: []byte("<xml/>"), Time: t0}},
		{name: "record without id", msg: broker.Message{Topic: topicManual, Key: []byte("sm-1"), Value: []byte(`{"msgId":"1"}`), Time: t0}},
		{name: "journal without journalpost", msg: broker.Message{Topic: topicJournal, Key: []byte("sm-1"), Value: []byte(`{"messageId":"1"}`), Time: t0}},
		{name: "missing key", msg: broker.Message{Topic: topicJournal, Value: []byte(`{"journalpostId":"1"}`), Time: t0}},
		{name: "unknown topic", msg: broker.Message{Topic: "other", Key: []byte("sm-1"), Value: []byte(`{}`), Time: t0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, svc.HandleMessage(ctx, tt.msg))
		})
	}

	assert.Empty(t, producer.messages)
	assert.Empty(t, repo.pending[SideRecord])
	assert.Empty(t, repo.pending[SideJournal])
}

func TestJoinManualHandlingFilter(t *testing.T) {
	filter, err := CompileManualHandlingFilter(
		`has(payload.merknader) && payload.merknader.exists(m, m["type"] == "UNDER_BEHANDLING")`)
	require.NoError(t, err)
	require.NotNil(t, filter)

	repo := newMemoryRepository()
	producer := &recordingProducer{}
	window := Window{Before: 14 * 24 * time.Hour, Grace: 31 * 24 * time.Hour}
	svc := NewService(repo, producer, filter, window, kafkaConfig(), logger.NopLogger())
	ctx := context.Background()

	manual := recordMessage(t, "sm-1", t0, models.Merknad{Type: "UNDER_BEHANDLING"})
	require.NoError(t, svc.HandleMessage(ctx, manual))
	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-1", "1", t0)))
	assert.Empty(t, producer.messages)

	require.NoError(t, svc.HandleMessage(ctx, recordMessage(t, "sm-2", t0, models.Merknad{Type: "TILBAKEDATERT"})))
	require.NoError(t, svc.HandleMessage(ctx, journalMessage(t, "sm-2", "2", t0)))
	assert.Len(t, producer.messages, 1)
}

func TestCompileManualHandlingFilterDisabled(t *testing.T) {
	for _, expression := range []string{"", "false"} {
		filter, err := CompileManualHandlingFilter(expression)
		require.NoError(t, err)
		assert.Nil(t, filter)
	}

	_, err := CompileManualHandlingFilter("payload.merknader")
	assert.Error(t, err)
}
