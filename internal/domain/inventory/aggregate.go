package inventory

import "fmt"

// AggregateItemRecord is one row of the derived item view: the summed count
// of an item across all storage containers, keyed by (item ID, display
// name, metadata tag). It is a read view, never a source of truth - the
// live container contents are.
type AggregateItemRecord struct {
	ItemID      string
	DisplayName string
	Tag         string
	Count       int
	Stacks      int
}

// Key returns the dedup key for the aggregate view
func (r AggregateItemRecord) Key() string {
	return fmt.Sprintf("%s\x00%s\x00%s", r.ItemID, r.DisplayName, r.Tag)
}

// SpaceSnapshot holds derived space counters over the storage pool. It is
// recomputed from scratch by the recalculation pass rather than maintained
// incrementally, because slot occupancy changes through concurrent job
// execution the snapshot does not observe.
type SpaceSnapshot struct {
	EmptySlots     int
	FullContainers int
	PartContainers int
}

func (s SpaceSnapshot) String() string {
	return fmt.Sprintf("Space[empty=%d, full=%d, partial=%d]",
		s.EmptySlots, s.FullContainers, s.PartContainers)
}
