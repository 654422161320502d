// Command gpfit fits a Gaussian process to a CSV file and prints the log
// marginal likelihood and the posterior at a grid of query points.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/schluedj/Bayesian-NonParametrics/config"
	"github.com/schluedj/Bayesian-NonParametrics/gp"
	"github.com/schluedj/Bayesian-NonParametrics/kern"
	"github.com/schluedj/Bayesian-NonParametrics/logging"
	"github.com/schluedj/Bayesian-NonParametrics/metrics"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
	"github.com/schluedj/Bayesian-NonParametrics/plotting"
	"github.com/schluedj/Bayesian-NonParametrics/score"
)

type options struct {
	configPath string
	dataPath   string
	kernel     string
	theta      string
	noise      float64
	query      string
	grid       string
	gridNoise  string
	plotPath   string
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("gpfit", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&o.dataPath, "data", "", "CSV file, one observation per row, target in the last column")
	fs.StringVar(&o.kernel, "kernel", "sqexp", "comma-separated kernel kinds, summed")
	fs.StringVar(&o.theta, "theta", "", "comma-separated hyperparameters of the kernel")
	fs.Float64Var(&o.noise, "noise", 0, "observation noise variance")
	fs.StringVar(&o.query, "query", "", "1-D query grid as min:max:count")
	fs.StringVar(&o.grid, "grid", "", "candidate hyperparameters, one comma-separated axis per parameter, axes separated by ';'")
	fs.StringVar(&o.gridNoise, "grid-noise", "", "comma-separated noise variances for -grid (default: -noise)")
	fs.StringVar(&o.plotPath, "plot", "", "write a plot of the 1-D posterior to this file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.dataPath == "" {
		return nil, fmt.Errorf("-data is required")
	}
	if o.theta == "" && o.grid == "" {
		return nil, fmt.Errorf("one of -theta or -grid is required")
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gpfit: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg, log)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Error(err, "metrics server shutdown")
			}
		}()
	}
	engine := gp.FromConfig(cfg.Engine, gp.WithLogger(log), gp.WithMetrics(m))

	set, err := loadSet(o.dataPath)
	if err != nil {
		return err
	}
	log.Info("loaded observations", "path", o.dataPath, "n", set.Len(), "dim", set.Dim())

	kinds, err := parseKinds(o.kernel)
	if err != nil {
		return err
	}
	theta, err := parseFloats(o.theta)
	if err != nil {
		return fmt.Errorf("-theta: %w", err)
	}
	noise := o.noise

	if o.grid != "" {
		best, err := searchGrid(ctx, engine, kinds, set, o, cfg.Engine.Workers, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "best theta=%s noise=%g lml=%.6f\n", formatFloats(best.Theta), best.Noise, best.LML)
		theta, noise = best.Theta, best.Noise
	}

	k, err := kern.BuildSum(theta, kinds...)
	if err != nil {
		return err
	}
	c, err := engine.Condition(k, set, noise)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "log marginal likelihood: %.6f\n", c.LogMarginalLikelihood())

	if o.query == "" {
		return nil
	}
	query, err := parseQuery(o.query)
	if err != nil {
		return err
	}
	post, err := c.Predict(query)
	if err != nil {
		return err
	}
	std := post.StdDev()
	for i, x := range post.Query {
		fmt.Fprintf(stdout, "%g %.6f %.6f\n", x[0], post.Mean.AtVec(i), std[i])
	}

	if o.plotPath != "" {
		p, err := plotting.Posterior(post, set, o.kernel)
		if err != nil {
			return err
		}
		if err := plotting.Save(p, o.plotPath); err != nil {
			return fmt.Errorf("saving plot: %w", err)
		}
		log.Info("plot written", "path", o.plotPath)
	}
	return nil
}

func loadSet(path string) (*obs.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	xs, ys, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs.FromSlices(xs, ys)
}

func searchGrid(ctx context.Context, engine *gp.Engine, kinds []kern.Kind, set *obs.Set, o *options, workers int, log logr.Logger) (score.Result, error) {
	axes, err := parseGrid(o.grid)
	if err != nil {
		return score.Result{}, err
	}
	noises := []float64{o.noise}
	if o.gridNoise != "" {
		if noises, err = parseFloats(o.gridNoise); err != nil {
			return score.Result{}, fmt.Errorf("-grid-noise: %w", err)
		}
	}
	k, err := kern.NewSum(kinds...)
	if err != nil {
		return score.Result{}, err
	}
	if len(axes) != k.NumHyper() {
		return score.Result{}, fmt.Errorf("-grid has %d axes, kernel takes %d hyperparameters", len(axes), k.NumHyper())
	}

	cands := score.Grid(axes, noises)
	results, err := score.Evaluate(ctx, engine, k, set, cands, workers)
	if err != nil {
		return score.Result{}, err
	}
	if n := score.Failed(results); n > 0 {
		log.Info("some candidates could not be factorized", "failed", n, "candidates", len(cands))
	}
	best, ok := score.Best(results)
	if !ok {
		return score.Result{}, fmt.Errorf("none of the %d candidates could be scored", len(cands))
	}
	return best, nil
}

func formatFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return strings.Join(parts, ",")
}
