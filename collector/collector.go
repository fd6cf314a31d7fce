// Package collector turns catalog query results into classified
// inventory records for the daily report.
package collector

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/haltiala/vahti/catalog"
	"github.com/haltiala/vahti/telemetry"
	"github.com/haltiala/vahti/types"
)

// Attributor resolves the identity behind a resource change. The result is
// always usable; "Unknown" stands in for anything unresolvable.
type Attributor interface {
	Resolve(ctx context.Context, resourceID string, eventTime time.Time) string
}

// Enricher fetches type-specific detail fields, degrading instead of failing.
type Enricher interface {
	Describe(ctx context.Context, resourceType, resourceID, region string) map[string]string
}

// Stream is a finite sequence of catalog items, consumed exactly once.
type Stream interface {
	Next(ctx context.Context) (catalog.Item, bool, error)
}

// Collector walks the catalog and emits one InventoryRecord per resource,
// classified against the report window.
type Collector struct {
	catalog    *catalog.Client
	attributor Attributor
	enricher   Enricher
	window     types.ReportWindow
	logger     *telemetry.Logger
}

// New creates a collector for one report window.
func New(cat *catalog.Client, attributor Attributor, enricher Enricher, window types.ReportWindow) *Collector {
	return &Collector{
		catalog:    cat,
		attributor: attributor,
		enricher:   enricher,
		window:     window,
		logger:     telemetry.NewLogger("collector"),
	}
}

// CollectSnapshot emits a record for every live resource in the catalog,
// classified Created, Modified or Existing.
func (c *Collector) CollectSnapshot(ctx context.Context) ([]types.InventoryRecord, error) {
	return c.collectSnapshotFrom(ctx, c.catalog.Snapshot())
}

// CollectDeletions emits a Deleted record for every resource removed during
// the report window.
func (c *Collector) CollectDeletions(ctx context.Context) ([]types.InventoryRecord, error) {
	return c.collectDeletionsFrom(ctx, c.catalog.DeletedDuring(c.window))
}

func (c *Collector) collectSnapshotFrom(ctx context.Context, stream Stream) ([]types.InventoryRecord, error) {
	var records []types.InventoryRecord
	for {
		item, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}

		record := c.snapshotRecord(ctx, item)
		c.logger.LogRecordCollected(ctx, record)
		records = append(records, record)
	}
}

func (c *Collector) collectDeletionsFrom(ctx context.Context, stream Stream) ([]types.InventoryRecord, error) {
	var records []types.InventoryRecord
	for {
		item, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}

		record := c.deletionRecord(ctx, item)
		c.logger.LogRecordCollected(ctx, record)
		records = append(records, record)
	}
}

// snapshotRecord normalizes one live catalog row. Parse failures default
// individual fields rather than dropping the record, so the report never
// silently under-counts.
func (c *Collector) snapshotRecord(ctx context.Context, item catalog.Item) types.InventoryRecord {
	c.checkConfigurationPayload(ctx, item)

	details := c.enricher.Describe(ctx, item.ResourceType, item.ResourceID, item.Region)

	currentState := details["State"]
	if currentState == "" {
		currentState = "Active"
	}

	captureTime, captureOK := parseTime(item.CaptureTime)
	creationTime, creationOK := parseTime(item.CreationTime)

	changeType := types.ChangeExisting
	switch {
	case creationOK && c.window.SameDay(creationTime):
		changeType = types.ChangeCreated
	case captureOK && c.window.SameDay(captureTime):
		changeType = types.ChangeModified
	}

	identity := types.UnknownIdentity
	lastModified := types.UnknownDate
	if captureOK {
		identity = c.attributor.Resolve(ctx, item.ResourceID, captureTime)
		lastModified = captureTime.Format(types.TimeLayout)
	}

	creationDate := types.UnknownDate
	if creationOK {
		creationDate = creationTime.Format(types.TimeLayout)
	}

	return types.InventoryRecord{
		Identity:       identity,
		ResourceID:     item.ResourceID,
		ResourceType:   item.ResourceType,
		CurrentState:   currentState,
		Region:         item.Region,
		CreationDate:   creationDate,
		LastModified:   lastModified,
		ChangeType:     changeType,
		Tags:           flattenTags(item.Tags),
		AdditionalInfo: serializeDetails(details),
	}
}

// deletionRecord normalizes one deletion row. Deleted resources are not
// enriched; they no longer exist to query.
func (c *Collector) deletionRecord(ctx context.Context, item catalog.Item) types.InventoryRecord {
	identity := types.UnknownIdentity
	lastModified := types.UnknownDate
	if deletionTime, ok := parseTime(item.DeletionTime); ok {
		identity = c.attributor.Resolve(ctx, item.ResourceID, deletionTime)
		lastModified = deletionTime.Format(types.TimeLayout)
	}

	return types.InventoryRecord{
		Identity:     identity,
		ResourceID:   item.ResourceID,
		ResourceType: item.ResourceType,
		CurrentState: "Deleted",
		Region:       item.Region,
		CreationDate: types.UnknownDate,
		LastModified: lastModified,
		ChangeType:   types.ChangeDeleted,
		Tags:         flattenTags(item.Tags),
	}
}

// checkConfigurationPayload surfaces malformed embedded configuration.
// The payload itself carries nothing the report needs, but a record whose
// configuration will not parse is worth a trace in the logs.
func (c *Collector) checkConfigurationPayload(ctx context.Context, item catalog.Item) {
	if item.Configuration == "" {
		return
	}
	if !json.Valid([]byte(item.Configuration)) {
		c.logger.WithContext(ctx).Warn().
			Str("resource_id", item.ResourceID).
			Msg("malformed configuration payload, continuing with defaults")
	}
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// flattenTags renders tags as "key:value, key:value" sorted by key so that
// identical catalog state always produces identical rows.
func flattenTags(tags map[string]string) string {
	if len(tags) == 0 {
		return types.NoTags
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+tags[k])
	}
	return strings.Join(pairs, ", ")
}

func serializeDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	data, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(data)
}
