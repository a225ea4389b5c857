package notify

// #region imports
import (
	"context"
	"sync"

	"refocusd/internal/intervene"
	"refocusd/internal/profile"
)

// #endregion

// #region scripted

// Scripted replays a queue of outcomes, for replay runs and tests. Once
// the queue drains, every delivery reads as ignored.
type Scripted struct {
	mu        sync.Mutex
	queue     []intervene.Outcome
	Delivered []intervene.Result
}

// NewScripted builds a notifier that answers with the given outcomes in order.
func NewScripted(outcomes ...intervene.Outcome) *Scripted {
	return &Scripted{queue: outcomes}
}

// Push appends an outcome to the queue.
func (s *Scripted) Push(out intervene.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, out)
}

// Deliver implements intervene.Notifier.
func (s *Scripted) Deliver(_ context.Context, res intervene.Result) (intervene.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delivered = append(s.Delivered, res)
	if len(s.queue) == 0 {
		return intervene.Outcome{Response: profile.ResponseIgnored}, nil
	}
	out := s.queue[0]
	s.queue = s.queue[1:]
	return out, nil
}

// #endregion
