package arena

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarena/internal/logger"
	"smarena/pkg/metrics"
)

type fakePublisher struct {
	bodies  [][]byte
	headers []map[string]string
	err     error
	closed  bool
}

func (p *fakePublisher) Publish(_ context.Context, body []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	p.headers = append(p.headers, headers)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestSenderPublishesOnce(t *testing.T) {
	publisher := &fakePublisher{}
	sender := NewSender(publisher, logger.NopLogger())
	before := testutil.ToFloat64(metrics.EventCounter)

	event, err := CreateArenaSykmelding(receivedFixture(), nil, journalpostID, "")
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), event))

	require.Len(t, publisher.bodies, 1)
	assert.True(t, bytes.HasPrefix(publisher.bodies[0], []byte(`<?xml version="1.0" encoding="UTF-8"?>`)))
	assert.Equal(t, "12314-123124-43252-2344", publisher.headers[0]["dokumentreferanse"])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventCounter))

	require.NoError(t, sender.Close())
	assert.True(t, publisher.closed)
}

func TestSenderPublishFailure(t *testing.T) {
	nack := errors.New("nack")
	sender := NewSender(&fakePublisher{err: nack}, logger.NopLogger())
	before := testutil.ToFloat64(metrics.EventCounter)

	event, err := CreateArenaSykmelding(receivedFixture(), nil, journalpostID, "")
	require.NoError(t, err)

	err = sender.Send(context.Background(), event)
	assert.ErrorIs(t, err, nack)
	assert.Equal(t, before, testutil.ToFloat64(metrics.EventCounter))
}
