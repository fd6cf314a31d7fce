package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/configservice"

	"github.com/haltiala/vahti/telemetry"
)

// Item is one row returned by a catalog select expression. Timestamps stay
// as strings here; the collector owns parsing and defaulting.
type Item struct {
	ResourceID    string            `json:"resourceId"`
	ResourceType  string            `json:"resourceType"`
	Tags          map[string]string `json:"tags"`
	Region        string            `json:"awsRegion"`
	CaptureTime   string            `json:"configurationItemCaptureTime"`
	Status        string            `json:"configurationItemStatus"`
	CreationTime  string            `json:"resourceCreationTime"`
	DeletionTime  string            `json:"resourceDeletionTime"`
	Configuration string            `json:"configuration"`
}

// Stream is a finite, non-restartable sequence of catalog items. Pages are
// pulled from the query paginator only as items are consumed, so a full
// result set is never materialized.
type Stream struct {
	paginator *configservice.SelectResourceConfigPaginator
	pending   []string
	logger    *telemetry.Logger
}

// Next returns the next item. The second return value is false once the
// stream is exhausted. A row that is not valid JSON is logged and skipped;
// only the paginated query itself can fail the stream.
func (s *Stream) Next(ctx context.Context) (Item, bool, error) {
	for {
		for len(s.pending) == 0 {
			if !s.paginator.HasMorePages() {
				return Item{}, false, nil
			}
			page, err := s.paginator.NextPage(ctx)
			if err != nil {
				return Item{}, false, fmt.Errorf("failed to get next catalog page: %w", err)
			}
			s.pending = page.Results
		}

		raw := s.pending[0]
		s.pending = s.pending[1:]

		var item Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			s.logger.WithContext(ctx).Warn().
				Err(err).
				Str("raw", raw).
				Msg("skipping malformed catalog row")
			continue
		}
		return item, true, nil
	}
}
