// Package notify delivers interventions to the user and reports how the
// user answered. Every implementation resolves delivery trouble to an
// ignored response; a broken notifier must never stall the loop.
package notify

// #region imports
import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"refocusd/internal/intervene"
	"refocusd/internal/profile"
)

// #endregion

// #region terminal

// Terminal prompts on a console. A prompt that gets no answer within
// the timeout resolves to ignored.
type Terminal struct {
	lines   chan string
	out     io.Writer
	timeout time.Duration
	clock   func() time.Time
}

// NewTerminal builds a terminal notifier over the given streams.
func NewTerminal(in io.Reader, out io.Writer, timeout time.Duration) *Terminal {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	t := &Terminal{
		lines:   make(chan string, 1),
		out:     out,
		timeout: timeout,
		clock:   time.Now,
	}
	go t.readLoop(bufio.NewReader(in))
	return t
}

// readLoop is the only reader of the input stream, alive for the
// notifier's lifetime. A timed-out prompt must not leave a second
// reader behind to swallow the answer to the next one.
func (t *Terminal) readLoop(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			t.lines <- line
		}
		if err != nil {
			return
		}
	}
}

// Deliver implements intervene.Notifier.
func (t *Terminal) Deliver(ctx context.Context, res intervene.Result) (intervene.Outcome, error) {
	t.render(res)

	asked := t.clock()
	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case line := <-t.lines:
		resp := parseResponse(line)
		out := intervene.Outcome{Response: resp}
		if resp == profile.ResponseComplied {
			out.TimeToRefocus = t.clock().Sub(asked)
		}
		return out, nil
	case <-timer.C:
		fmt.Fprintln(t.out, "(no answer, carrying on)")
		return intervene.Outcome{Response: profile.ResponseIgnored}, nil
	case <-ctx.Done():
		return intervene.Outcome{Response: profile.ResponseIgnored}, nil
	}
}

// render prints the intervention with its strategy-specific extras.
func (t *Terminal) render(res intervene.Result) {
	fmt.Fprintf(t.out, "\n⏸  %s\n", res.Message)
	for i, task := range res.MicroTasks {
		fmt.Fprintf(t.out, "   %d. %s\n", i+1, task)
	}
	if res.TimeLimit > 0 {
		fmt.Fprintf(t.out, "   timer: %s\n", res.TimeLimit)
	}
	if res.FollowUp != "" {
		fmt.Fprintf(t.out, "   %s\n", res.FollowUp)
	}
	fmt.Fprint(t.out, "back on track? [y]es / [o]verride / enter to ignore: ")
}

// parseResponse maps a console answer onto the three outcomes. Anything
// unrecognized counts as ignored.
func parseResponse(line string) profile.Response {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "done", "ok", "back":
		return profile.ResponseComplied
	case "o", "override", "n", "no", "later":
		return profile.ResponseOverrode
	default:
		return profile.ResponseIgnored
	}
}

// #endregion
