package join

import (
	"errors"
	"fmt"
	"time"

	"smarena/internal/config"
	"smarena/internal/constants"
)

var ErrOutsideWindow = errors.New("journal event outside join window")

// Window bounds how far a journal event may lie from its record, measured on
// Kafka timestamps. A journal event may precede the record by Before and
// follow it by Grace.
type Window struct {
	Before time.Duration
	Grace  time.Duration
}

func WindowFromConfig(cfg config.JoinConfig) Window {
	w := Window{Before: cfg.WindowBefore, Grace: cfg.Grace}
	if w.Before <= 0 {
		w.Before = constants.DefaultJoinWindowBefore
	}
	if w.Grace <= 0 {
		w.Grace = constants.DefaultJoinGrace
	}
	return w
}

func (w Window) Contains(recordTime, journalTime time.Time) bool {
	d := journalTime.Sub(recordTime)
	return d >= -w.Before && d <= w.Grace
}

// Check returns ErrOutsideWindow when the pair cannot be joined.
func (w Window) Check(recordTime, journalTime time.Time) error {
	if w.Contains(recordTime, journalTime) {
		return nil
	}
	return fmt.Errorf("%w: journal at %s, record at %s", ErrOutsideWindow,
		journalTime.UTC().Format(time.RFC3339), recordTime.UTC().Format(time.RFC3339))
}

// TTL is how long either side is kept waiting for the other.
func (w Window) TTL() time.Duration {
	if w.Before > w.Grace {
		return w.Before
	}
	return w.Grace
}
