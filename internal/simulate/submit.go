package simulate

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/repentdaily/rating/pkg/logger"
)

// submitCounts are the outcomes of one submission pass.
type submitCounts struct {
	submitted, accepted, duplicate, failed int64
}

// submitAll posts completions with cfg.Workers concurrent workers.
func submitAll(ctx context.Context, cfg *Config, client *Client, completions []Completion) submitCounts {
	var counts submitCounts
	log := logger.Named("simulate")

	work := make(chan Completion, cfg.Workers*2)
	var wg sync.WaitGroup
	for range max(cfg.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for comp := range work {
				res, err := client.Submit(ctx, comp)
				atomic.AddInt64(&counts.submitted, 1)
				switch res {
				case submitAccepted:
					atomic.AddInt64(&counts.accepted, 1)
				case submitDuplicate:
					atomic.AddInt64(&counts.duplicate, 1)
				default:
					atomic.AddInt64(&counts.failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "submit failed", logger.String("event_id", comp.EventID), logger.Error(err))
					}
				}
			}
		}()
	}

	func() {
		defer close(work)
		for _, comp := range completions {
			select {
			case <-ctx.Done():
				return
			case work <- comp:
			}
		}
	}()
	wg.Wait()
	return counts
}
