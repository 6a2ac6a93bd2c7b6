package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"memtree/chart"
	"memtree/config"
	"memtree/logger"
	"memtree/tree"
)

// Config sizes one benchmark run.
type Config struct {
	Workers    int
	Operations int
	Rate       int
	Chart      bool
}

// Universe returns every path of depth 1..maxDepth over the given
// folder names. The benchmark picks operation targets from this set so
// workers constantly collide on shared prefixes.
func Universe(maxDepth int, names []string) []string {
	var paths []string

	current := []string{"/"}
	for depth := 0; depth < maxDepth; depth++ {
		var next []string
		for _, prefix := range current {
			for _, name := range names {
				path := prefix + name + "/"
				paths = append(paths, path)
				next = append(next, path)
			}
		}
		current = next
	}

	return paths
}

func expectedError(err error) bool {
	return err == nil ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.EEXIST) ||
		errors.Is(err, syscall.ENOTEMPTY) ||
		errors.Is(err, tree.ErrMoveIntoSubtree)
}

// Run drives a random create/remove/list/move mix against a fresh tree
// from Config.Workers goroutines and reports throughput once a second,
// to the live chart when enabled or to the log otherwise.
func Run(benchConfig Config) error {
	benchLogger, err := logger.NewLogger("Bench")
	if err != nil {
		return err
	}

	memtree := tree.New()
	universe := Universe(config.BenchDepth, []string{"a", "b", "c", "d"})

	var benchChart *chart.Chart
	if benchConfig.Chart {
		benchChart = chart.NewChart()
		go func() {
			if err := benchChart.Start(); err != nil {
				benchLogger.Error("chart terminated", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var completed atomic.Int64
	var failed atomic.Int64

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		var last int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current := completed.Load()
				delta := current - last
				last = current

				if benchChart != nil {
					select {
					case benchChart.OpsChannel <- float64(delta):
					default:
					}
					select {
					case benchChart.LogChannel <- fmt.Sprintf("%d operations/s, %d total", delta, current):
					default:
					}
				} else {
					benchLogger.Infof("%d operations/s, %d total", delta, current)
				}
			}
		}
	}()

	start := time.Now()

	var wg sync.WaitGroup
	for worker := 0; worker < benchConfig.Workers; worker++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()

			var limiter *rate.Limiter
			if benchConfig.Rate > 0 {
				limiter = rate.NewLimiter(rate.Limit(benchConfig.Rate), benchConfig.Rate)
			}

			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < benchConfig.Operations; i++ {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}

				path := universe[rng.Intn(len(universe))]

				var err error
				switch rng.Intn(10) {
				case 0, 1, 2, 3:
					err = memtree.Create(path)
				case 4, 5, 6:
					err = memtree.Remove(path)
				case 7, 8:
					_, err = memtree.List(path)
				case 9:
					err = memtree.Move(path, universe[rng.Intn(len(universe))])
				}

				if !expectedError(err) {
					failed.Add(1)
					benchLogger.Error("unexpected operation error", err)
					return
				}

				completed.Add(1)
			}
		}(int64(worker + 1))
	}

	wg.Wait()
	cancel()

	elapsed := time.Since(start)

	if benchChart != nil {
		close(benchChart.StopChannel)
	}

	benchLogger.Infof("Completed %d operations in %s", completed.Load(), elapsed.Round(time.Millisecond))

	if failures := failed.Load(); failures > 0 {
		return fmt.Errorf("benchmark hit %d unexpected errors", failures)
	}

	contents, err := memtree.List("/")
	if err != nil {
		return err
	}

	benchLogger.Infof("Final root contents: %s", contents)
	if contents != "" {
		benchLogger.Infof("Final tree holds %d top level folders", len(strings.Split(contents, ",")))
	}

	memtree.Free()

	return nil
}
