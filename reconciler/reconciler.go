// Package reconciler merges the snapshot and deletion collections into
// the final record sequence for a run.
package reconciler

import (
	"github.com/haltiala/vahti/types"
)

// Merge concatenates the snapshot records and the deletion records, in that
// fixed order. No deduplication happens across the two streams: a resource
// recreated on the report day legitimately appears in both. An empty merge
// yields the single "no changes" sentinel so downstream stages always have
// at least one row.
func Merge(snapshot, deletions []types.InventoryRecord) []types.InventoryRecord {
	merged := make([]types.InventoryRecord, 0, len(snapshot)+len(deletions))
	merged = append(merged, snapshot...)
	merged = append(merged, deletions...)

	if len(merged) == 0 {
		return []types.InventoryRecord{types.SentinelRecord()}
	}
	return merged
}
