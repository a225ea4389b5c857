package source

// #region imports
import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"refocusd/internal/activity"
)

// #endregion

// #region wire

// observation is one JSON line from the capture process.
type observation struct {
	Timestamp   time.Time `json:"timestamp"`
	App         string    `json:"app"`
	WindowTitle string    `json:"window_title"`
	URL         string    `json:"url"`
}

// #endregion

// #region reader

// Reader consumes newline-delimited JSON observations from a stream,
// typically the capture agent's stdout piped into the daemon. Blank
// lines are skipped; a malformed line fails that one tick only.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps a JSONL observation stream.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: sc}
}

// Current implements Source. It blocks until a line arrives, the stream
// ends (ErrExhausted), or reading fails.
func (r *Reader) Current(_ context.Context) (activity.Snapshot, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		var obs observation
		if err := json.Unmarshal([]byte(line), &obs); err != nil {
			return activity.Snapshot{}, fmt.Errorf("malformed observation: %w", err)
		}
		return activity.Snapshot{
			Timestamp:   obs.Timestamp,
			App:         obs.App,
			WindowTitle: obs.WindowTitle,
			URL:         obs.URL,
		}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return activity.Snapshot{}, fmt.Errorf("read observation: %w", err)
	}
	return activity.Snapshot{}, ErrExhausted
}

// CheckPermissions implements Source. Stream sources carry no OS
// permission to check.
func (r *Reader) CheckPermissions() bool { return true }

// #endregion
