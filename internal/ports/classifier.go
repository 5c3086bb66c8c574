package ports

import "context"

// Prediction is the classifier output for one feature vector.
type Prediction struct {
	UpProbability   float64
	DownProbability float64
}

// Confidence returns the probability of the dominant class.
func (p Prediction) Confidence() float64 {
	if p.UpProbability >= p.DownProbability {
		return p.UpProbability
	}
	return p.DownProbability
}

// Classifier scores a market feature vector for directional bias.
type Classifier interface {
	// Ready reports whether a model is loaded and usable.
	Ready() bool

	// Predict scores the feature vector. Returns ErrModelNotReady when no
	// model is loaded.
	Predict(ctx context.Context, features []float64) (Prediction, error)

	// Reload replaces the loaded model from the given path.
	Reload(ctx context.Context, path string) error

	// Close releases model resources.
	Close() error
}
