// Package attribution resolves which identity most likely caused a
// resource change, from the CloudTrail activity log.
package attribution

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cttypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"

	"github.com/haltiala/vahti/telemetry"
	"github.com/haltiala/vahti/types"
)

// lookupWindow bounds the event search around the change timestamp.
const lookupWindow = 5 * time.Minute

// CloudTrailAPI defines the CloudTrail operations the resolver uses.
type CloudTrailAPI interface {
	LookupEvents(ctx context.Context, params *cloudtrail.LookupEventsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.LookupEventsOutput, error)
}

// Resolver attributes resource changes to acting identities. Attribution is
// best-effort: Resolve never fails, it falls back to "Unknown".
type Resolver struct {
	api    CloudTrailAPI
	logger *telemetry.Logger
}

// NewResolver creates a resolver over the CloudTrail API.
func NewResolver(api CloudTrailAPI) *Resolver {
	return &Resolver{
		api:    api,
		logger: telemetry.NewLogger("attribution"),
	}
}

// Resolve returns the identity that acted on resourceID around eventTime.
// It looks up activity events naming the resource within ±5 minutes and
// takes the first event the log returns; CloudTrail orders events most
// recent first, so no extra sorting is applied.
func (r *Resolver) Resolve(ctx context.Context, resourceID string, eventTime time.Time) string {
	start := eventTime.Add(-lookupWindow)
	end := eventTime.Add(lookupWindow)

	out, err := r.api.LookupEvents(ctx, &cloudtrail.LookupEventsInput{
		LookupAttributes: []cttypes.LookupAttribute{
			{
				AttributeKey:   cttypes.LookupAttributeKeyResourceName,
				AttributeValue: aws.String(resourceID),
			},
		},
		StartTime:  &start,
		EndTime:    &end,
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		r.logger.WithContext(ctx).Debug().
			Err(err).
			Str("resource_id", resourceID).
			Msg("activity lookup failed, attribution unknown")
		return types.UnknownIdentity
	}

	if len(out.Events) == 0 {
		return types.UnknownIdentity
	}

	if username := aws.ToString(out.Events[0].Username); username != "" {
		return username
	}
	return types.UnknownIdentity
}
