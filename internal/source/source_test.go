package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"refocusd/internal/activity"
)

func TestScriptedReplaysInOrderThenExhausts(t *testing.T) {
	s := NewScripted(
		activity.Snapshot{App: "VS Code"},
		activity.Snapshot{App: "Safari"},
	)

	first, err := s.Current(context.Background())
	if err != nil || first.App != "VS Code" {
		t.Fatalf("first = %+v, %v", first, err)
	}
	second, err := s.Current(context.Background())
	if err != nil || second.App != "Safari" {
		t.Fatalf("second = %+v, %v", second, err)
	}
	if _, err := s.Current(context.Background()); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestStampedFillsMissingTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	explicit := now.Add(-time.Hour)
	s := NewStamped(NewScripted(
		activity.Snapshot{App: "VS Code"},
		activity.Snapshot{App: "Safari", Timestamp: explicit},
	), func() time.Time { return now })

	first, err := s.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !first.Timestamp.Equal(now) {
		t.Errorf("missing timestamp filled with %v, want %v", first.Timestamp, now)
	}

	second, err := s.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !second.Timestamp.Equal(explicit) {
		t.Errorf("explicit timestamp overwritten: %v", second.Timestamp)
	}
}

func TestReaderParsesObservationStream(t *testing.T) {
	stream := strings.Join([]string{
		`{"timestamp":"2026-03-02T09:00:00Z","app":"VS Code","window_title":"billing.go"}`,
		``,
		`{"timestamp":"2026-03-02T09:00:05Z","app":"Safari","window_title":"mechanical keyboards","url":"https://example.com/keebs"}`,
	}, "\n")

	r := NewReader(strings.NewReader(stream))

	first, err := r.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.App != "VS Code" || first.WindowTitle != "billing.go" {
		t.Errorf("first = %+v", first)
	}

	second, err := r.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.URL != "https://example.com/keebs" {
		t.Errorf("second = %+v", second)
	}

	if _, err := r.Current(context.Background()); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted at stream end, got %v", err)
	}
}

func TestReaderMalformedLineFailsOneTick(t *testing.T) {
	r := NewReader(strings.NewReader("not json\n{\"app\":\"VS Code\"}\n"))

	if _, err := r.Current(context.Background()); err == nil {
		t.Fatal("malformed line should error")
	}
	snap, err := r.Current(context.Background())
	if err != nil {
		t.Fatalf("stream should recover after a bad line: %v", err)
	}
	if snap.App != "VS Code" {
		t.Errorf("recovered snapshot = %+v", snap)
	}
}
