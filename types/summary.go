package types

// RunSummary counts records per change type for one run.
type RunSummary map[ChangeType]int

// Summarize recomputes the summary from the final record sequence.
func Summarize(records []InventoryRecord) RunSummary {
	summary := make(RunSummary)
	for _, r := range records {
		summary[r.ChangeType]++
	}
	return summary
}

// Total returns the number of records the summary covers.
func (s RunSummary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// SummaryOrder is the fixed order classification counts appear in
// notifications and logs.
var SummaryOrder = []ChangeType{
	ChangeCreated,
	ChangeModified,
	ChangeDeleted,
	ChangeExisting,
	ChangeNone,
}
