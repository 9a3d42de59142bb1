package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05.999999999"
)

// Date is a calendar date without zone, encoded as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) AddDays(days int) Date {
	return Date{Time: d.Time.AddDate(0, 0, days)}
}

// DaysUntil returns whole days from d to other. Same day is 0.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateTime is a local timestamp without zone, encoded as "2006-01-02T15:04:05".
type DateTime struct {
	time.Time
}

func NewDateTime(year int, month time.Month, day, hour, min, sec int) DateTime {
	return DateTime{Time: time.Date(year, month, day, hour, min, sec, 0, time.UTC)}
}

func ParseDateTime(s string) (DateTime, error) {
	t, err := time.Parse(dateTimeLayout, s)
	if err == nil {
		return DateTime{Time: t}, nil
	}
	// upstream producers occasionally include an offset
	if t, rfcErr := time.Parse(time.RFC3339Nano, s); rfcErr == nil {
		return DateTime{Time: t.UTC()}, nil
	}
	return DateTime{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
}

func (dt DateTime) String() string {
	if dt.IsZero() {
		return ""
	}
	return dt.Format("2006-01-02T15:04:05")
}

// Date returns the calendar date part.
func (dt DateTime) Date() Date {
	y, m, d := dt.Time.Date()
	return NewDate(y, m, d)
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	if dt.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*dt = DateTime{}
		return nil
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(data []byte) error {
	return d.UnmarshalJSON(data)
}

func (dt DateTime) MarshalText() ([]byte, error) {
	return []byte(dt.String()), nil
}

func (dt *DateTime) UnmarshalText(data []byte) error {
	return dt.UnmarshalJSON(data)
}
