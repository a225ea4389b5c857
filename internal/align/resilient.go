package align

// #region imports
import (
	"context"
	"log"
)

// #endregion

// #region resilient

// Resilient fails open: when the primary classifier errors, the verdict
// comes from the fallback and the error stops here. Classification
// problems must never stall the observation loop.
type Resilient struct {
	primary  Classifier
	fallback Classifier
}

// NewResilient wraps a primary classifier with a fallback.
func NewResilient(primary, fallback Classifier) *Resilient {
	return &Resilient{primary: primary, fallback: fallback}
}

// Analyze implements Classifier.
func (r *Resilient) Analyze(ctx context.Context, description, commitment string) (Assessment, error) {
	a, err := r.primary.Analyze(ctx, description, commitment)
	if err == nil {
		return a, nil
	}
	log.Printf("[ALIGN] primary classifier failed, using fallback: %v", err)
	return r.fallback.Analyze(ctx, description, commitment)
}

// #endregion
