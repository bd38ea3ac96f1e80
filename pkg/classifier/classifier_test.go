package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishjudge/pkg/features"
)

func TestAlign(t *testing.T) {
	var v features.Vector
	v[features.HavingIPAddress] = features.Suspicious
	v[features.URLLength] = features.Benign

	in := Align(v, features.Suspicious, false)
	require.Len(t, in, Inputs)
	assert.Equal(t, 1.0, in[0])
	assert.Equal(t, -1.0, in[1])
	assert.Equal(t, 0.0, in[2])
	assert.Equal(t, 1.0, in[features.Count])

	inv := Align(v, features.Suspicious, true)
	assert.Equal(t, -1.0, inv[0])
	assert.Equal(t, 1.0, inv[1])
	assert.Equal(t, -1.0, inv[features.Count])

	names := InputNames()
	require.Len(t, names, Inputs)
	assert.Equal(t, features.ReportName, names[Inputs-1])
}

func TestBaseline(t *testing.T) {
	m := Baseline()
	ctx := context.Background()

	var benign, suspicious features.Vector
	for i := range benign {
		benign[i] = features.Benign
		suspicious[i] = features.Suspicious
	}

	low, err := m.Predict(ctx, Align(benign, features.Benign, false))
	require.NoError(t, err)
	high, err := m.Predict(ctx, Align(suspicious, features.Suspicious, false))
	require.NoError(t, err)

	assert.Less(t, low, 0.1)
	assert.Greater(t, high, 0.9)

	_, err = m.Predict(ctx, make([]float64, 3))
	assert.ErrorIs(t, err, ErrInputWidth)
}

func TestParseLinear(t *testing.T) {
	m, err := ParseLinear([]byte(`
bias: 0.5
invert_polarity: true
weights:
  having_IP_Address: 2
  Statistical_report: -1
`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Bias)
	assert.True(t, m.InvertPolarity)
	assert.Equal(t, 2.0, m.Weights[0])
	assert.Equal(t, -1.0, m.Weights[Inputs-1])

	in := make([]float64, Inputs)
	in[0] = -1
	// inverted: x0 = 1, z = 0.5 + 2
	p, err := m.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 0.924, p, 0.001)

	_, err = ParseLinear([]byte("weights:\n  not_a_feature: 1\n"))
	assert.ErrorContains(t, err, "not_a_feature")

	_, err = ParseLinear([]byte("weights: [1, 2"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	c, err := Load(Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Linear{}, c)

	c, err = Load(Config{RemoteURL: "http://127.0.0.1:1/predict"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, c)

	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bias: 1\n"), 0o644))
	c, err = Load(Config{Path: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.(*Linear).Bias)

	_, err = Load(Config{Path: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	assert.Error(t, err)
}

func TestRemote(t *testing.T) {
	var reply string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req predictRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Features, Inputs)
		if reply == "" {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, time.Second)
	in := make([]float64, Inputs)

	reply = `{"probability": 0.73}`
	p, err := r.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0.73, p)

	reply = `{"probability": 1.7}`
	_, err = r.Predict(context.Background(), in)
	assert.ErrorIs(t, err, ErrBadProbability)

	reply = `{"label": 1}`
	_, err = r.Predict(context.Background(), in)
	assert.ErrorIs(t, err, ErrBadProbability)

	reply = ""
	_, err = r.Predict(context.Background(), in)
	assert.ErrorContains(t, err, "503")
}
