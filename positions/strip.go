package positions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/cpu"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

const jobBatchSize = 64

// Option configures PriceStrip.
type Option func(*stripOptions)

type stripOptions struct {
	workers  int
	progress io.Writer
	logger   *slog.Logger
}

// WithWorkers sets the number of concurrent pricers. It defaults to the
// number of logical CPUs.
func WithWorkers(n int) Option {
	return func(o *stripOptions) { o.workers = n }
}

// WithProgress renders a progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(o *stripOptions) { o.progress = w }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *stripOptions) { o.logger = logger }
}

func defaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

type indexedJob struct {
	index int
	job   Job
}

// PriceStrip prices every job on a pool of workers and returns the results
// in job order. Failed jobs carry their error in the result; only a
// cancelled context fails the whole strip.
func PriceStrip(ctx context.Context, jobs []Job, opts ...Option) ([]Result, error) {
	o := stripOptions{progress: io.Discard, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = defaultWorkers()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	start := time.Now()
	o.logger.Info("pricing strip", "jobs", len(jobs), "workers", o.workers)

	p := mpb.New(mpb.WithOutput(o.progress), mpb.WithWidth(64))
	bar := p.AddBar(int64(len(jobs)),
		mpb.PrependDecorators(
			decor.Name("Pricing"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)

	results := make([]Result, len(jobs))
	var processed int64
	processJobs(ctx, jobs, results, o.workers, &processed, bar)

	// a cancelled strip never fills the bar
	if !bar.Completed() {
		bar.Abort(false)
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("priced %d of %d jobs: %w", atomic.LoadInt64(&processed), len(jobs), err)
	}
	o.logger.Info("strip priced", "jobs", len(jobs), "elapsed", time.Since(start))
	return results, nil
}

func processJobs(ctx context.Context, jobs []Job, results []Result, numWorkers int, processed *int64, bar *mpb.Bar) {
	var wg sync.WaitGroup
	jobChan := make(chan indexedJob, jobBatchSize)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go worker(ctx, jobChan, results, &wg, processed, bar)
	}

	// Feed jobs to workers
	go func() {
		defer close(jobChan)
		for i, j := range jobs {
			select {
			case jobChan <- indexedJob{index: i, job: j}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
}

// worker writes each result into its own slot of results, so no two
// workers touch the same element.
func worker(ctx context.Context, jobs <-chan indexedJob, results []Result, wg *sync.WaitGroup, processed *int64, bar *mpb.Bar) {
	defer wg.Done()
	for j := range jobs {
		if ctx.Err() != nil {
			continue
		}
		results[j.index] = price(j.job)
		atomic.AddInt64(processed, 1)
		bar.Increment()
	}
}

func price(j Job) Result {
	if j.Engine == nil {
		return Result{Name: j.Name, Err: fmt.Errorf("job %q has no engine", j.Name)}
	}
	res, err := j.Engine.Calculate(j.Option)
	if err != nil {
		return Result{Name: j.Name, Err: fmt.Errorf("job %q: %w", j.Name, err)}
	}
	return Result{Name: j.Name, Results: res}
}
