// Command pmsbench compares the parallel merge sort against the standard
// library sort and a sequential merge sort on random integer arrays.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/king54346/pmsort"
)

func main() {
	c, err := Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "pmsbench:", err)
		os.Exit(2)
	}

	logger, err := newLogger(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pmsbench:", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, logger, os.Stdout); err != nil {
		logger.Error("benchmark failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(c *Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// result is the average wall time of each contender at one array size.
type result struct {
	size       int
	std        time.Duration
	sequential time.Duration
	parallel   time.Duration
}

func run(ctx context.Context, c *Config, logger *zap.Logger, out io.Writer) error {
	scheduler, err := pmsort.ParseScheduler(c.Scheduler)
	if err != nil {
		return err
	}
	mode, err := pmsort.ParseMergeMode(c.Mode)
	if err != nil {
		return err
	}
	workers := c.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	reg := prometheus.NewRegistry()
	metrics := pmsort.NewMetrics(reg)
	if c.MetricsAddr != "" {
		srv := serveMetrics(c.MetricsAddr, reg, logger)
		defer srv.Close()
	}

	opts := []pmsort.Option{
		pmsort.WithScheduler(scheduler),
		pmsort.WithMergeMode(mode),
		pmsort.WithPoolSize(int32(c.PoolSize)),
		pmsort.WithLogger(logger.Named("pmsort")),
		pmsort.WithMetrics(metrics),
	}
	if c.Strict {
		opts = append(opts, pmsort.WithStrictPlanner())
	}

	logger.Info("starting benchmark",
		zap.Ints("sizes", c.Sizes),
		zap.Int("iterations", c.Iterations),
		zap.Int("workers", workers),
		zap.Stringer("scheduler", scheduler),
		zap.Stringer("mode", mode))

	rnd := rand.New(rand.NewSource(c.Seed))
	results := make([]result, 0, len(c.Sizes))
	for _, size := range c.Sizes {
		r := result{size: size}
		for i := 0; i < c.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			input := randomInts(rnd, size)

			a := slices.Clone(input)
			r.std += timed(func() { slices.Sort(a) })

			b := slices.Clone(input)
			r.sequential += timed(func() { pmsort.SequentialMergeSort(b) })

			p := slices.Clone(input)
			var sortErr error
			r.parallel += timed(func() { sortErr = pmsort.Sort(ctx, p, workers, opts...) })
			if sortErr != nil {
				return errors.Wrapf(sortErr, "size %d iteration %d", size, i)
			}

			if !slices.Equal(a, b) || !slices.Equal(a, p) {
				return errors.Errorf("size %d iteration %d: results differ", size, i)
			}
		}
		n := time.Duration(c.Iterations)
		r.std /= n
		r.sequential /= n
		r.parallel /= n
		results = append(results, r)
		logger.Debug("size done", zap.Int("size", size), zap.Duration("parallel", r.parallel))
	}

	report(out, workers, results)
	return nil
}

func randomInts(rnd *rand.Rand, n int) []int64 {
	a := make([]int64, n)
	for i := range a {
		a[i] = rnd.Int63()
	}
	return a
}

func timed(f func()) time.Duration {
	start := time.Now()
	f()
	return time.Since(start)
}

func report(out io.Writer, workers int, results []result) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"size", "std sort", "sequential merge", fmt.Sprintf("parallel (%d)", workers), "speedup"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, r := range results {
		speedup := "-"
		if r.parallel > 0 {
			speedup = strconv.FormatFloat(float64(r.sequential)/float64(r.parallel), 'f', 2, 64)
		}
		table.Append([]string{
			strconv.Itoa(r.size),
			r.std.String(),
			r.sequential.String(),
			r.parallel.String(),
			speedup,
		})
	}
	table.Render()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
