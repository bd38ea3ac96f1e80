// Package classifier defines the model boundary: a fixed-width numeric input
// in, one phishing probability out.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"phishjudge/pkg/features"
	"phishjudge/pkg/logger"
)

// Inputs is the model input width: every feature plus the blacklist report.
const Inputs = features.Count + 1

var (
	ErrBadProbability = errors.New("classifier returned a probability outside [0,1]")
	ErrInputWidth     = errors.New("classifier input has the wrong width")
)

type Classifier interface {
	Predict(ctx context.Context, inputs []float64) (float64, error)
}

// Align lays out the model input: the feature vector in canonical order
// followed by the report slot. invert flips every sign for models trained on
// the opposite convention (-1 suspicious).
func Align(v features.Vector, report features.Score, invert bool) []float64 {
	out := make([]float64, 0, Inputs)
	out = append(out, v.Floats()...)
	out = append(out, float64(report))
	if invert {
		for i := range out {
			out[i] = -out[i]
		}
	}
	return out
}

// InputNames returns the names of the model inputs in order.
func InputNames() []string {
	names := make([]string, 0, Inputs)
	names = append(names, features.Names[:]...)
	return append(names, features.ReportName)
}

func checkProbability(p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: %v", ErrBadProbability, p)
	}
	return p, nil
}

type Config struct {
	Path      string
	RemoteURL string
	Timeout   time.Duration
}

// Load picks the classifier: a remote model server when RemoteURL is set,
// else a linear model from Path, else the built-in baseline.
func Load(cfg Config, log logger.Logger) (Classifier, error) {
	if log == nil {
		log = logger.NewNop()
	}
	switch {
	case cfg.RemoteURL != "":
		log.Info("using remote classifier", logger.String("url", cfg.RemoteURL))
		return NewRemote(cfg.RemoteURL, cfg.Timeout), nil
	case cfg.Path != "":
		m, err := LoadLinear(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Info("using linear classifier", logger.String("path", cfg.Path))
		return m, nil
	default:
		log.Warn("no model configured, using baseline weights")
		return Baseline(), nil
	}
}
