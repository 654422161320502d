package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schluedj/Bayesian-NonParametrics/kern"
)

const sample = `x,y
-1, 0.5
# comment
0, 0
1, 0.5
`

func writeData(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	xs, ys, err := readCSV(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{-1}, {0}, {1}}, xs)
	assert.Equal(t, []float64{0.5, 0, 0.5}, ys)

	xs, ys, err = readCSV(strings.NewReader("1,2,3\n4,5,6\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {4, 5}}, xs)
	assert.Equal(t, []float64{3, 6}, ys)

	_, _, err = readCSV(strings.NewReader("1,2\n3,oops\n"))
	assert.Error(t, err)
	_, _, err = readCSV(strings.NewReader("1\n"))
	assert.Error(t, err)
}

func TestParseQuery(t *testing.T) {
	q, err := parseQuery("-1:1:5")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{-1}, {-0.5}, {0}, {0.5}, {1}}, q)

	q, err = parseQuery("2:3:1")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2}}, q)

	for _, bad := range []string{"1:2", "a:1:2", "0:b:2", "0:1:0", "0:1:x"} {
		_, err := parseQuery(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseGridAndKinds(t *testing.T) {
	axes, err := parseGrid("0.5,1;0.1, 1,10")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5, 1}, {0.1, 1, 10}}, axes)

	_, err = parseGrid("1;")
	assert.Error(t, err)

	kinds, err := parseKinds("sqexp, const")
	require.NoError(t, err)
	assert.Equal(t, []kern.Kind{kern.KindSquaredExp, kern.KindConstant}, kinds)

	_, err = parseKinds("sqexp,nope")
	assert.Error(t, err)
}

func TestRunPredicts(t *testing.T) {
	path := writeData(t, sample)
	plotPath := filepath.Join(t.TempDir(), "post.png")
	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-data", path, "-theta", "1,2", "-noise", "0.01", "-query", "-1:1:3", "-plot", plotPath,
	}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "log marginal likelihood: "))
	fields := strings.Fields(lines[1])
	require.Len(t, fields, 3)
	assert.Equal(t, "-1", fields[0])

	info, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRunGrid(t *testing.T) {
	path := writeData(t, sample)
	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-data", path, "-grid", "0.5,1;0.5,2", "-grid-noise", "0.01,0.1",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "best theta=")
	assert.Contains(t, out.String(), "log marginal likelihood: ")

	err = run(context.Background(), []string{"-data", path, "-grid", "1"}, &out)
	assert.ErrorContains(t, err, "axes")
}

func TestRunRequiresInputs(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"-theta", "1,1"}, &out))
	assert.Error(t, run(context.Background(), []string{"-data", "x.csv"}, &out))
	assert.Error(t, run(context.Background(), []string{"-data", filepath.Join(t.TempDir(), "missing.csv"), "-theta", "1,1"}, &out))
}
