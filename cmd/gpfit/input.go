package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/schluedj/Bayesian-NonParametrics/kern"
)

// readCSV reads one observation per row: point coordinates first, target
// last. A first row that does not parse as numbers is taken as a header.
func readCSV(r io.Reader) ([][]float64, []float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv: %w", err)
	}
	var xs [][]float64
	var ys []float64
	for i, row := range rows {
		if len(row) < 2 {
			return nil, nil, fmt.Errorf("row %d: need at least one coordinate and a target", i+1)
		}
		vals, err := parseFloatFields(row)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		xs = append(xs, vals[:len(vals)-1])
		ys = append(ys, vals[len(vals)-1])
	}
	return xs, ys, nil
}

func parseFloatFields(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseFloats parses a comma-separated list; an empty string is an empty list.
func parseFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return parseFloatFields(strings.Split(s, ","))
}

// parseKinds parses a comma-separated list of kernel names to be summed.
func parseKinds(s string) ([]kern.Kind, error) {
	var kinds []kern.Kind
	for _, name := range strings.Split(s, ",") {
		k, err := kern.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// parseQuery expands "min:max:count" into count evenly spaced 1-D points.
func parseQuery(s string) ([][]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("query %q: want min:max:count", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("query min: %w", err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("query max: %w", err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("query count %q: want a positive integer", parts[2])
	}
	out := make([][]float64, n)
	for i := range out {
		x := lo
		if n > 1 {
			x = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		out[i] = []float64{x}
	}
	return out, nil
}

// parseGrid parses one comma-separated axis per hyperparameter, axes
// separated by semicolons.
func parseGrid(s string) ([][]float64, error) {
	var axes [][]float64
	for i, axis := range strings.Split(s, ";") {
		vals, err := parseFloats(axis)
		if err != nil {
			return nil, fmt.Errorf("grid axis %d: %w", i, err)
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("grid axis %d is empty", i)
		}
		axes = append(axes, vals)
	}
	return axes, nil
}
