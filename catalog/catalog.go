// Package catalog queries the AWS Config resource catalog with its
// SQL-like select API and exposes results as a lazily paged stream.
package catalog

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"

	"github.com/haltiala/vahti/telemetry"
	"github.com/haltiala/vahti/types"
)

// snapshotExpression selects every currently recorded resource.
const snapshotExpression = "SELECT resourceId, resourceType, tags, awsRegion, " +
	"configurationItemCaptureTime, configurationItemStatus, " +
	"resourceCreationTime, configuration " +
	"WHERE configurationItemStatus IN ('ResourceDiscovered', 'OK')"

// queryTimeLayout is the timestamp form AWS Config accepts in expressions.
const queryTimeLayout = "2006-01-02T15:04:05.000Z"

// Client runs select expressions against AWS Config.
type Client struct {
	api    configservice.SelectResourceConfigAPIClient
	logger *telemetry.Logger
}

// NewClient creates a catalog client on top of the Config service API.
func NewClient(api configservice.SelectResourceConfigAPIClient) *Client {
	return &Client{
		api:    api,
		logger: telemetry.NewLogger("catalog"),
	}
}

// Snapshot streams all resources the catalog currently knows about.
func (c *Client) Snapshot() *Stream {
	return c.stream(snapshotExpression)
}

// DeletedDuring streams resources whose deletion fell inside the window.
func (c *Client) DeletedDuring(w types.ReportWindow) *Stream {
	expression := fmt.Sprintf(
		"SELECT resourceId, resourceType, tags, awsRegion, "+
			"configurationItemCaptureTime, resourceDeletionTime "+
			"WHERE configurationItemStatus = 'ResourceDeleted' "+
			"AND resourceDeletionTime BETWEEN '%s' AND '%s'",
		w.Start.Format(queryTimeLayout),
		w.End.Format(queryTimeLayout),
	)
	return c.stream(expression)
}

func (c *Client) stream(expression string) *Stream {
	input := &configservice.SelectResourceConfigInput{
		Expression: aws.String(expression),
	}
	return &Stream{
		paginator: configservice.NewSelectResourceConfigPaginator(c.api, input),
		logger:    c.logger,
	}
}
