package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"
)

// Run starts the control loops and blocks until ctx is cancelled. Shutdown
// lets in-flight jobs run to completion; queued but undispatched jobs are
// dropped.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Printf("[orchestrator] starting: %d containers (%d storage), pool size %d",
		len(o.containers), len(o.storage), o.cfg.PoolSize)

	// initial view build
	o.reload(ctx)
	o.recalculate(ctx)

	var wg sync.WaitGroup
	loops := []func(context.Context){
		o.dispatchLoop,
		o.triggerLoop,
		o.reloadLoop,
		o.recalcLoop,
		o.detectorLoop,
	}
	for _, loop := range loops {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(loop)
	}

	wg.Wait()
	o.pool.Shutdown(context.Background())
	log.Printf("[orchestrator] stopped")
	return ctx.Err()
}

// dispatchLoop drains the four queues into the worker pool every tick
func (o *Orchestrator) dispatchLoop(ctx context.Context) {
	for {
		o.dispatchOnce()
		o.pool.Tick(ctx)

		if !o.sleep(ctx, o.cfg.TickInterval) {
			return
		}
	}
}

// triggerLoop is the single consumer of all trigger channels; each message
// causes exactly one enqueue action
func (o *Orchestrator) triggerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case consolidate := <-o.sortCh:
			o.QueueSort(ctx, consolidate)
		case <-o.depositCh:
			if _, err := o.QueueDeposit(ctx); err != nil {
				log.Printf("[orchestrator] deposit request skipped: %v", err)
			}
		case <-o.reformatCh:
			o.QueueReformat(ctx)
		case req := <-o.orderCh:
			o.QueueOrder(req.itemID, req.amount)
		case <-o.rescanCh:
			o.rescan(ctx)
		}
	}
}

// reloadLoop rebuilds the aggregate item view on demand, with a periodic
// pass as a safety net against missed triggers
func (o *Orchestrator) reloadLoop(ctx context.Context) {
	timer := time.NewTimer(o.cfg.ReloadInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.reloadCh:
		case <-timer.C:
		}
		o.reload(ctx)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(o.cfg.ReloadInterval)
	}
}

// recalcLoop recomputes the space snapshot on demand plus a periodic pass
func (o *Orchestrator) recalcLoop(ctx context.Context) {
	timer := time.NewTimer(o.cfg.RecalcInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.recalcCh:
		case <-timer.C:
		}
		o.recalculate(ctx)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(o.cfg.RecalcInterval)
	}
}

// detectorLoop runs the deposit stuck-state detector on its own cadence,
// independent of the dispatch loop
func (o *Orchestrator) detectorLoop(ctx context.Context) {
	for {
		if !o.sleep(ctx, o.cfg.DetectorInterval) {
			return
		}
		o.checkStuck(ctx)
	}
}

// sleep waits for d or until ctx is cancelled; returns false on
// cancellation
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Commands. Each sends a message consumed by exactly one loop; requests
// arriving while an identical trigger is pending coalesce into one action.

// RequestSort asks for a sort cycle over all occupied storage containers
func (o *Orchestrator) RequestSort(consolidate bool) {
	select {
	case o.sortCh <- consolidate:
	default:
	}
}

// RequestDeposit asks for a deposit cycle draining the input receptacle
func (o *Orchestrator) RequestDeposit() {
	select {
	case o.depositCh <- struct{}{}:
	default:
	}
}

// RequestReformat asks for a sort cycle with consolidation forced on
func (o *Orchestrator) RequestReformat() {
	select {
	case o.reformatCh <- struct{}{}:
	default:
	}
}

// RequestOrder asks for amount items of itemID to be moved to the output
// receptacle. Returns false when the order buffer is full.
func (o *Orchestrator) RequestOrder(itemID string, amount int) bool {
	select {
	case o.orderCh <- orderRequest{itemID: itemID, amount: amount}:
		return true
	default:
		return false
	}
}

// RequestReload asks for a full rebuild of the aggregate item view
func (o *Orchestrator) RequestReload() {
	o.signalReload()
}

// RequestRescan asks for a topology liveness re-verification
func (o *Orchestrator) RequestRescan() {
	select {
	case o.rescanCh <- struct{}{}:
	default:
	}
}
