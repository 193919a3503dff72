package orchestrator

import (
	"context"
	"sort"

	"github.com/ajvierra/quartermaster/internal/application/common"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
)

// reload re-scans every storage container and rebuilds the aggregate item
// view from scratch. The previous view is fully replaced, not patched;
// stock deltas against it are published for collaborators.
func (o *Orchestrator) reload(ctx context.Context) {
	records := make(map[string]*inventory.AggregateItemRecord)
	totalItems := 0
	totalStacks := 0

	for _, c := range o.storage {
		contents, ok := o.scanner.List(ctx, c)
		if !ok {
			o.bus.Publish(common.ContainerUnavailable{Container: c.Name(), JobKind: "reload"})
			continue
		}

		for _, stack := range contents {
			rec := inventory.AggregateItemRecord{
				ItemID:      stack.ItemID,
				DisplayName: stack.DisplayName,
				Tag:         stack.Tag,
			}
			key := rec.Key()

			existing, found := records[key]
			if !found {
				records[key] = &rec
				existing = records[key]
			}
			existing.Count += stack.Count
			existing.Stacks++
			totalItems += stack.Count
			totalStacks++
		}
	}

	view := make([]inventory.AggregateItemRecord, 0, len(records))
	current := make(map[string]inventory.AggregateItemRecord, len(records))
	for key, rec := range records {
		view = append(view, *rec)
		current[key] = *rec
	}
	sort.Slice(view, func(i, j int) bool {
		if view[i].ItemID != view[j].ItemID {
			return view[i].ItemID < view[j].ItemID
		}
		if view[i].DisplayName != view[j].DisplayName {
			return view[i].DisplayName < view[j].DisplayName
		}
		return view[i].Tag < view[j].Tag
	})

	o.mu.Lock()
	prev := o.prevRecords
	o.aggregates = view
	o.prevRecords = current
	o.mu.Unlock()

	// item-count deltas, observational only
	for _, rec := range view {
		if delta := rec.Count - prev[rec.Key()].Count; delta != 0 {
			o.bus.Publish(common.StockDelta{
				ItemID:      rec.ItemID,
				DisplayName: rec.DisplayName,
				Tag:         rec.Tag,
				Delta:       delta,
			})
		}
	}
	for key, rec := range prev {
		if _, still := current[key]; !still && rec.Count != 0 {
			// item fully withdrawn since last reload
			o.bus.Publish(common.StockDelta{
				ItemID:      rec.ItemID,
				DisplayName: rec.DisplayName,
				Tag:         rec.Tag,
				Delta:       -rec.Count,
			})
		}
	}

	o.bus.Publish(common.IndexRebuilt{
		UniqueItems: len(view),
		TotalStacks: totalStacks,
		TotalItems:  totalItems,
	})

	logger := common.LoggerFromContext(ctx)
	logger.Log("DEBUG", "Aggregate item view rebuilt", map[string]interface{}{
		"unique_items": len(view),
		"total_stacks": totalStacks,
		"total_items":  totalItems,
	})
}

// recalculate recomputes the space snapshot over the storage pool. Derived
// counters are rebuilt whole rather than maintained incrementally, because
// occupancy changes through job execution the snapshot does not observe.
func (o *Orchestrator) recalculate(ctx context.Context) {
	snap := inventory.SpaceSnapshot{}

	for _, c := range o.storage {
		usage, ok := o.scanner.Usage(ctx, c)
		if !ok {
			continue
		}

		snap.EmptySlots += usage.Free
		switch {
		case usage.Free == 0:
			snap.FullContainers++
		case usage.Used > 0:
			snap.PartContainers++
		}
	}

	o.mu.Lock()
	o.space = snap
	o.mu.Unlock()
}
