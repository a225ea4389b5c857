package align

// #region imports
import (
	"context"

	"refocusd/internal/activity"
)

// #endregion

// #region assessment

// Assessment is a classifier's verdict on one activity description.
type Assessment struct {
	Alignment  activity.Alignment
	Confidence float64
	Reasoning  string
}

// Aligned reports whether the activity serves the commitment.
func (a Assessment) Aligned() bool {
	return a.Alignment == activity.OnTrack
}

// #endregion

// #region classifier

// Classifier judges whether an activity description serves the declared
// commitment. Implementations may call out of process; the keyword
// classifier is the deterministic floor every deployment has.
type Classifier interface {
	Analyze(ctx context.Context, description, commitment string) (Assessment, error)
}

// #endregion
