package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haltiala/vahti/types"
)

func TestMerge_Order(t *testing.T) {
	snapshot := []types.InventoryRecord{
		{ResourceID: "i-1", ChangeType: types.ChangeCreated},
		{ResourceID: "i-2", ChangeType: types.ChangeExisting},
	}
	deletions := []types.InventoryRecord{
		{ResourceID: "i-3", ChangeType: types.ChangeDeleted},
	}

	merged := Merge(snapshot, deletions)

	require.Len(t, merged, 3)
	assert.Equal(t, "i-1", merged[0].ResourceID)
	assert.Equal(t, "i-2", merged[1].ResourceID)
	assert.Equal(t, "i-3", merged[2].ResourceID, "deletions come last")
}

func TestMerge_NoDeduplication(t *testing.T) {
	// A resource deleted and recreated on the report day shows up twice.
	snapshot := []types.InventoryRecord{{ResourceID: "i-1", ChangeType: types.ChangeCreated}}
	deletions := []types.InventoryRecord{{ResourceID: "i-1", ChangeType: types.ChangeDeleted}}

	merged := Merge(snapshot, deletions)
	require.Len(t, merged, 2)
}

func TestMerge_EmptyYieldsSentinel(t *testing.T) {
	merged := Merge(nil, nil)

	require.Len(t, merged, 1)
	assert.True(t, merged[0].IsSentinel())
	assert.Equal(t, types.RunSummary{types.ChangeNone: 1}, types.Summarize(merged))
}

func TestMerge_OneSidedInput(t *testing.T) {
	deletions := []types.InventoryRecord{{ResourceID: "i-1", ChangeType: types.ChangeDeleted}}

	merged := Merge(nil, deletions)
	require.Len(t, merged, 1)
	assert.False(t, merged[0].IsSentinel())
}
