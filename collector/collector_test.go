package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haltiala/vahti/catalog"
	"github.com/haltiala/vahti/telemetry"
	"github.com/haltiala/vahti/types"
)

type fakeStream struct {
	items []catalog.Item
	err   error
}

func (s *fakeStream) Next(_ context.Context) (catalog.Item, bool, error) {
	if s.err != nil {
		return catalog.Item{}, false, s.err
	}
	if len(s.items) == 0 {
		return catalog.Item{}, false, nil
	}
	item := s.items[0]
	s.items = s.items[1:]
	return item, true, nil
}

type fakeAttributor struct {
	identity string
	calls    []string
}

func (a *fakeAttributor) Resolve(_ context.Context, resourceID string, _ time.Time) string {
	a.calls = append(a.calls, resourceID)
	if a.identity == "" {
		return types.UnknownIdentity
	}
	return a.identity
}

type fakeEnricher struct {
	details map[string]string
}

func (e *fakeEnricher) Describe(_ context.Context, _, _, _ string) map[string]string {
	if e.details == nil {
		return map[string]string{}
	}
	return e.details
}

func newTestCollector(window types.ReportWindow, attributor Attributor, enricher Enricher) *Collector {
	return &Collector{
		attributor: attributor,
		enricher:   enricher,
		window:     window,
		logger:     telemetry.NewLogger("collector-test"),
	}
}

// Window covers 2025-03-14 UTC.
var testWindow = types.WindowFor(time.Date(2025, 3, 15, 6, 0, 0, 0, time.UTC))

func TestCollectSnapshot_CreatedYesterday(t *testing.T) {
	attributor := &fakeAttributor{identity: "alice"}
	c := newTestCollector(testWindow, attributor, &fakeEnricher{details: map[string]string{"State": "running", "InstanceType": "t3.micro"}})

	records, err := c.collectSnapshotFrom(context.Background(), &fakeStream{items: []catalog.Item{
		{
			ResourceID:   "i-1",
			ResourceType: "AWS::EC2::Instance",
			Region:       "us-east-1",
			CaptureTime:  "2025-03-14T10:00:00.000Z",
			CreationTime: "2025-03-14T10:00:00.000Z",
			Tags:         map[string]string{"Name": "web", "Env": "prod"},
		},
	}})

	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, types.ChangeCreated, r.ChangeType)
	assert.Equal(t, "alice", r.Identity)
	assert.Equal(t, "running", r.CurrentState)
	assert.Equal(t, "2025-03-14 10:00:00", r.CreationDate)
	assert.Equal(t, "2025-03-14 10:00:00", r.LastModified)
	assert.Equal(t, "Env:prod, Name:web", r.Tags)
	assert.JSONEq(t, `{"State":"running","InstanceType":"t3.micro"}`, r.AdditionalInfo)
	assert.Equal(t, []string{"i-1"}, attributor.calls)
}

func TestCollectSnapshot_CreationTakesPrecedence(t *testing.T) {
	// Both timestamps fall on the report date; Created wins.
	c := newTestCollector(testWindow, &fakeAttributor{}, &fakeEnricher{})

	records, err := c.collectSnapshotFrom(context.Background(), &fakeStream{items: []catalog.Item{
		{
			ResourceID:   "i-1",
			CaptureTime:  "2025-03-14T23:00:00.000Z",
			CreationTime: "2025-03-14T01:00:00.000Z",
		},
	}})

	require.NoError(t, err)
	assert.Equal(t, types.ChangeCreated, records[0].ChangeType)
}

func TestCollectSnapshot_ModifiedYesterday(t *testing.T) {
	// Created 30 days ago, captured yesterday.
	c := newTestCollector(testWindow, &fakeAttributor{}, &fakeEnricher{})

	records, err := c.collectSnapshotFrom(context.Background(), &fakeStream{items: []catalog.Item{
		{
			ResourceID:   "i-1",
			CaptureTime:  "2025-03-14T10:00:00.000Z",
			CreationTime: "2025-02-12T10:00:00.000Z",
		},
	}})

	require.NoError(t, err)
	assert.Equal(t, types.ChangeModified, records[0].ChangeType)
}

func TestCollectSnapshot_Existing(t *testing.T) {
	c := newTestCollector(testWindow, &fakeAttributor{}, &fakeEnricher{})

	records, err := c.collectSnapshotFrom(context.Background(), &fakeStream{items: []catalog.Item{
		{
			ResourceID:   "i-1",
			CaptureTime:  "2025-03-01T10:00:00.000Z",
			CreationTime: "2025-01-01T10:00:00.000Z",
		},
	}})

	require.NoError(t, err)
	assert.Equal(t, types.ChangeExisting, records[0].ChangeType)
}

func TestCollectSnapshot_Defaults(t *testing.T) {
	c := newTestCollector(testWindow, &fakeAttributor{identity: "alice"}, &fakeEnricher{})

	records, err := c.collectSnapshotFrom(context.Background(), &fakeStream{items: []catalog.Item{
		{
			ResourceID:    "i-odd",
			CaptureTime:   "garbage",
			Configuration: "{not json",
		},
	}})

	require.NoError(t, err)
	require.Len(t, records, 1, "malformed fields default, record survives")

	r := records[0]
	assert.Equal(t, types.ChangeExisting, r.ChangeType)
	assert.Equal(t, types.UnknownIdentity, r.Identity, "no attribution without a capture time")
	assert.Equal(t, types.UnknownDate, r.LastModified)
	assert.Equal(t, types.UnknownDate, r.CreationDate)
	assert.Equal(t, "Active", r.CurrentState)
	assert.Equal(t, types.NoTags, r.Tags)
	assert.Empty(t, r.AdditionalInfo)
}

func TestCollectSnapshot_EnrichmentStateMerges(t *testing.T) {
	c := newTestCollector(testWindow, &fakeAttributor{}, &fakeEnricher{details: map[string]string{"State": "stopped"}})

	records, err := c.collectSnapshotFrom(context.Background(), &fakeStream{items: []catalog.Item{
		{ResourceID: "i-1", CaptureTime: "2025-03-01T10:00:00.000Z"},
	}})

	require.NoError(t, err)
	assert.Equal(t, "stopped", records[0].CurrentState)
}

func TestCollectDeletions(t *testing.T) {
	attributor := &fakeAttributor{identity: "bob"}
	c := newTestCollector(testWindow, attributor, &fakeEnricher{})

	records, err := c.collectDeletionsFrom(context.Background(), &fakeStream{items: []catalog.Item{
		{
			ResourceID:   "i-gone",
			ResourceType: "AWS::EC2::Instance",
			Region:       "us-east-1",
			DeletionTime: "2025-03-14T23:59:00.000Z",
			Tags:         map[string]string{"Name": "old"},
		},
	}})

	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, types.ChangeDeleted, r.ChangeType)
	assert.Equal(t, "Deleted", r.CurrentState)
	assert.Equal(t, types.UnknownDate, r.CreationDate)
	assert.Equal(t, "2025-03-14 23:59:00", r.LastModified)
	assert.Equal(t, "bob", r.Identity)
	assert.Empty(t, r.AdditionalInfo, "deleted resources are not enriched")
	assert.Equal(t, []string{"i-gone"}, attributor.calls)
}

func TestCollect_StreamError(t *testing.T) {
	c := newTestCollector(testWindow, &fakeAttributor{}, &fakeEnricher{})

	_, err := c.collectSnapshotFrom(context.Background(), &fakeStream{err: errors.New("boom")})
	assert.Error(t, err)

	_, err = c.collectDeletionsFrom(context.Background(), &fakeStream{err: errors.New("boom")})
	assert.Error(t, err)
}

func TestFlattenTags(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"empty", nil, "No tags"},
		{"single", map[string]string{"Name": "web"}, "Name:web"},
		{"sorted", map[string]string{"b": "2", "a": "1", "c": "3"}, "a:1, b:2, c:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flattenTags(tt.tags))
		})
	}
}
