package plotting

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/gp"
	"github.com/schluedj/Bayesian-NonParametrics/kern"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
)

func posterior(t *testing.T, query [][]float64) (*gp.Posterior, *obs.Set) {
	t.Helper()
	k, err := kern.Build(kern.KindSquaredExp, []float64{1, 2})
	require.NoError(t, err)
	set, err := obs.FromSlices(obs.Scalars([]float64{-1, 0.5, 1.2}), []float64{0.3, -0.4, 0.8})
	require.NoError(t, err)
	post, err := gp.Predict(k, set, query, 0.01)
	require.NoError(t, err)
	return post, set
}

func TestPosteriorToPNG(t *testing.T) {
	// Unsorted query on purpose.
	post, set := posterior(t, obs.Scalars([]float64{2, -2, 0, 1, -1}))
	p, err := Posterior(post, set, "posterior")
	require.NoError(t, err)
	assert.Equal(t, "posterior", p.Title.Text)

	var buf bytes.Buffer
	require.NoError(t, Write(p, &buf, "png"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestSave(t *testing.T) {
	post, _ := posterior(t, obs.Scalars([]float64{-2, 0, 2}))
	p, err := Posterior(post, nil, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "post.svg")
	require.NoError(t, Save(p, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRejectsMultidimensionalPoints(t *testing.T) {
	k, err := kern.Build(kern.KindSquaredExp, []float64{1, 1})
	require.NoError(t, err)
	post, err := gp.Prior(k, [][]float64{{0, 1}, {1, 0}})
	require.NoError(t, err)
	_, err = Posterior(post, nil, "")
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	_, err = Posterior(&gp.Posterior{}, nil, "")
	assert.True(t, errors.Is(err, errs.ErrEmptyQuerySet))
}
