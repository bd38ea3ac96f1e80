package classifier

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"phishjudge/pkg/features"
)

// Linear is a logistic model over the aligned inputs.
type Linear struct {
	Weights [Inputs]float64
	Bias    float64
	// InvertPolarity flips inputs before weighting.
	InvertPolarity bool
}

// linearFile is the on-disk form. Weights are keyed by input name so files
// stay readable; unnamed inputs weigh zero.
type linearFile struct {
	Bias           float64            `yaml:"bias"`
	InvertPolarity bool               `yaml:"invert_polarity"`
	Weights        map[string]float64 `yaml:"weights"`
}

// LoadLinear reads a YAML model file.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseLinear(data)
}

func ParseLinear(data []byte) (*Linear, error) {
	var f linearFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	m := &Linear{Bias: f.Bias, InvertPolarity: f.InvertPolarity}
	names := InputNames()
	for name, w := range f.Weights {
		idx := -1
		for i, n := range names {
			if n == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("parse model: unknown input %q", name)
		}
		m.Weights[idx] = w
	}
	return m, nil
}

func (m *Linear) Predict(ctx context.Context, inputs []float64) (float64, error) {
	if len(inputs) != Inputs {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInputWidth, len(inputs), Inputs)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	z := m.Bias
	for i, x := range inputs {
		if m.InvertPolarity {
			x = -x
		}
		z += m.Weights[i] * x
	}
	return checkProbability(1 / (1 + math.Exp(-z)))
}

// Baseline is a hand-tuned logistic model used when no trained model is
// configured. Lexical and blacklist signals dominate.
func Baseline() *Linear {
	m := &Linear{Bias: -0.4}
	for i := range m.Weights {
		m.Weights[i] = 0.15
	}
	strong := []int{
		features.HavingIPAddress,
		features.HavingAtSymbol,
		features.DoubleSlashRedirecting,
		features.ShorteningService,
		features.AbnormalURL,
		features.DNSRecord,
		features.SFH,
		features.SubmittingToEmail,
	}
	for _, i := range strong {
		m.Weights[i] = 0.6
	}
	m.Weights[features.SSLFinalState] = 0.4
	m.Weights[features.PrefixSuffix] = 0.4
	m.Weights[features.AgeOfDomain] = 0.4
	m.Weights[features.Count] = 2.5
	return m
}
