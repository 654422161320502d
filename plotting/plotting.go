// Package plotting renders one-dimensional posteriors with gonum/plot.
package plotting

import (
	"image/color"
	"io"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/gp"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
)

var (
	meanColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	bandColor = color.RGBA{R: 31, G: 119, B: 180, A: 60}
	dataColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// Posterior draws the mean of post, a ±2 standard deviation band around it
// and, when set is not nil, the training observations. Query and training
// points must be one-dimensional.
func Posterior(post *gp.Posterior, set *obs.Set, title string) (*plot.Plot, error) {
	if post.Len() == 0 {
		return nil, errs.ErrEmptyQuerySet
	}
	xs, err := scalars(post.Query)
	if err != nil {
		return nil, err
	}
	mean := post.MeanValues()
	std := post.StdDev()

	// The query may come in any order; draw it left to right.
	order := argsort(xs)
	line := make(plotter.XYs, len(xs))
	upper := make(plotter.XYs, len(xs))
	lower := make(plotter.XYs, len(xs))
	for i, j := range order {
		line[i] = plotter.XY{X: xs[j], Y: mean[j]}
		upper[i] = plotter.XY{X: xs[j], Y: mean[j] + 2*std[j]}
		lower[len(xs)-1-i] = plotter.XY{X: xs[j], Y: mean[j] - 2*std[j]}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "f(x)"

	band, err := plotter.NewPolygon(append(upper, lower...))
	if err != nil {
		return nil, err
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	p.Add(band)

	l, err := plotter.NewLine(line)
	if err != nil {
		return nil, err
	}
	l.Color = meanColor
	l.Width = vg.Points(1.5)
	p.Add(l)
	p.Legend.Add("mean", l)
	p.Legend.Add("±2σ", band)

	if set != nil && set.Len() > 0 {
		pts, err := scalars(set.Points())
		if err != nil {
			return nil, err
		}
		ys := set.Targets()
		data := make(plotter.XYs, len(pts))
		for i := range pts {
			data[i] = plotter.XY{X: pts[i], Y: ys[i]}
		}
		s, err := plotter.NewScatter(data)
		if err != nil {
			return nil, err
		}
		s.Color = dataColor
		p.Add(s)
		p.Legend.Add("observations", s)
	}
	return p, nil
}

// Save writes p to path; the format follows the file extension.
func Save(p *plot.Plot, path string) error {
	return p.Save(Width, Height, path)
}

// Write encodes p in the given format ("png", "svg", "pdf"...) to w.
func Write(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(Width, Height, strings.TrimPrefix(format, "."))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func scalars(pts [][]float64) ([]float64, error) {
	out := make([]float64, len(pts))
	for i, p := range pts {
		if len(p) != 1 {
			return nil, errs.Newf(errs.ErrDimensionMismatch,
				"can only plot one-dimensional points, point %d has dimension %d", i, len(p))
		}
		if math.IsNaN(p[0]) || math.IsInf(p[0], 0) {
			return nil, errs.Newf(errs.ErrInvalidObservation, "point %d is not finite", i)
		}
		out[i] = p[0]
	}
	return out, nil
}

func argsort(xs []float64) []int {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })
	return idx
}
