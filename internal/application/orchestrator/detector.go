package orchestrator

import (
	"context"
	"log"

	"github.com/ajvierra/quartermaster/internal/application/common"
)

// checkStuck is one cycle of the deposit stuck-state detector.
//
// The transfer primitive does not reliably distinguish "nothing to move"
// from "move attempted, zero accepted", so silent deposit failures leave
// the input receptacle full with no error signal. The detector reads the
// input's live item count each cycle; if the count is unchanged for
// StuckThreshold consecutive checks while free storage space remains and
// no deposit is in flight, it force-triggers a fresh deposit cycle and
// resets its counter. While a deposit is queued or running the detector is
// disarmed, so a forced trigger fires exactly once, not once per cycle.
func (o *Orchestrator) checkStuck(ctx context.Context) {
	if o.input == nil {
		return
	}

	if o.depositInFlight() {
		o.resetDetector()
		return
	}

	count, ok := o.scanner.ItemCount(ctx, o.input)
	if !ok {
		o.resetDetector()
		return
	}
	if count == 0 {
		o.resetDetector()
		return
	}

	if count == o.lastInputCount {
		o.unchangedChecks++
	} else {
		o.lastInputCount = count
		o.unchangedChecks = 1
	}

	if o.unchangedChecks < o.cfg.StuckThreshold {
		return
	}

	space := o.Space()
	if space.EmptySlots == 0 && space.PartContainers == 0 {
		// nowhere to put anything; stay armed but do not spin
		o.unchangedChecks = o.cfg.StuckThreshold
		return
	}

	log.Printf("[orchestrator] deposit stuck: input count %d unchanged for %d checks, forcing deposit cycle",
		count, o.unchangedChecks)
	o.bus.Publish(common.DepositStuck{InputCount: count, Checks: o.unchangedChecks})

	o.unchangedChecks = 0
	if _, err := o.QueueDeposit(ctx); err != nil {
		log.Printf("[orchestrator] forced deposit failed to enqueue: %v", err)
	}
}

// resetDetector clears the unchanged-count streak
func (o *Orchestrator) resetDetector() {
	o.lastInputCount = -1
	o.unchangedChecks = 0
}
