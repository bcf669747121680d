package backtester

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/internal/workers"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

// SweepProgress is invoked after every finished grid cell.
type SweepProgress func(completed, total int)

// RunSweep runs the discount-buy backtest once per combination of
// sellAfterDays x sellTargetPct (full cross product) against the shared base
// parameters. Cells run in parallel on a worker pool but each cell is a
// fresh, independent run - no lot queue or cash balance is shared - and the
// returned slice is always in cross-product order (sellAfterDays outer,
// sellTargetPct inner).
func (e *Engine) RunSweep(params types.SweepParams, numWorkers int, onProgress SweepProgress) ([]types.BuyDiscountResult, error) {
	if len(params.SellAfterDays) == 0 {
		return nil, fmt.Errorf("backtester: sweep requires at least one sellAfterDays value")
	}
	if len(params.SellTargetPcts) == 0 {
		return nil, fmt.Errorf("backtester: sweep requires at least one sellTargetPct value")
	}

	total := len(params.SellAfterDays) * len(params.SellTargetPcts)
	results := make([]types.BuyDiscountResult, total)
	errs := make([]error, total)

	pool := workers.NewPool(e.logger, &workers.PoolConfig{
		Name:       "grid-sweep",
		NumWorkers: numWorkers,
		QueueSize:  total,
	})
	pool.Start()
	defer pool.Stop()

	var wg sync.WaitGroup
	var completed atomic.Int64

	idx := 0
	for _, days := range params.SellAfterDays {
		for _, target := range params.SellTargetPcts {
			cell := idx
			cellParams := params.Base
			cellParams.SellAfterDays = days
			cellParams.SellTargetPct = target

			wg.Add(1)
			if err := pool.SubmitFunc(func() error {
				defer wg.Done()
				result, err := e.RunBuyDiscount(cellParams)
				if err != nil {
					errs[cell] = err
					return err
				}
				results[cell] = *result
				if onProgress != nil {
					onProgress(int(completed.Add(1)), total)
				}
				return nil
			}); err != nil {
				wg.Done()
				return nil, fmt.Errorf("backtester: submitting sweep cell %d: %w", cell, err)
			}
			idx++
		}
	}
	wg.Wait()

	for cell, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("backtester: sweep cell %d: %w", cell, err)
		}
	}

	e.logger.Debug("grid sweep complete",
		zap.Int("cells", total),
		zap.Int("workers", numWorkers),
	)

	return results, nil
}
