package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarena/internal/config"
)

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig("tss", config.CircuitBreakerConfig{Timeout: 5 * time.Second, FailureRatio: 0.8})

	assert.Equal(t, "tss", s.Name)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 0.8, s.FailureRatio)
	assert.Equal(t, uint32(3), s.MaxRequests)
	assert.Equal(t, uint32(3), s.MinRequests)
}

func TestWrapperOpensAfterFailures(t *testing.T) {
	w := NewWrapper(Settings{Name: "test-open", MaxRequests: 1, Timeout: time.Minute, FailureRatio: 0.5, MinRequests: 2})
	boom := errors.New("boom")

	for range 2 {
		_, err := w.ExecuteWithContext(context.Background(), func() (any, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	}
	assert.True(t, w.IsOpen())

	called := false
	_, err := w.ExecuteWithContext(context.Background(), func() (any, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called)
}

func TestWrapperIgnoresExpectedErrors(t *testing.T) {
	notFound := errors.New("not found")
	w := NewWrapper(Settings{
		Name: "test-expected", MaxRequests: 1, Timeout: time.Minute, FailureRatio: 0.5, MinRequests: 1,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, notFound) },
	})

	for range 3 {
		_, err := w.ExecuteWithContext(context.Background(), func() (any, error) { return nil, notFound })
		require.ErrorIs(t, err, notFound)
	}
	assert.Equal(t, gobreaker.StateClosed, w.State())
}

func TestExecuteTyped(t *testing.T) {
	w := NewWrapper(DefaultSettings("test-typed"))

	v, err := Execute(context.Background(), w, func() (string, error) { return "12345", nil })
	require.NoError(t, err)
	assert.Equal(t, "12345", v)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Execute(ctx, w, func() (string, error) { return "unused", nil })
	assert.ErrorIs(t, err, context.Canceled)
}
