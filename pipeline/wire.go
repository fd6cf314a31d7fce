package pipeline

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/haltiala/vahti/attribution"
	"github.com/haltiala/vahti/catalog"
	"github.com/haltiala/vahti/collector"
	"github.com/haltiala/vahti/config"
	"github.com/haltiala/vahti/enrich"
	"github.com/haltiala/vahti/notify"
	"github.com/haltiala/vahti/publish"
	"github.com/haltiala/vahti/report"
	"github.com/haltiala/vahti/types"
)

// New builds a runner wired to real AWS clients. The report window is
// derived from now, so a run at any time of day covers the previous UTC day.
func New(ctx context.Context, cfg *config.Config, now time.Time) (*Runner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	window := types.WindowFor(now)

	col := collector.New(
		catalog.NewClient(configservice.NewFromConfig(awsCfg)),
		attribution.NewResolver(cloudtrail.NewFromConfig(awsCfg)),
		enrich.NewDefaultRegistry(awsCfg),
		window,
	)

	publisher := publish.NewPublisherFromClient(s3.NewFromConfig(awsCfg), cfg.Report.Bucket)
	mailer := notify.NewMailer(sesv2.NewFromConfig(awsCfg), cfg.Report.EmailFrom, cfg.Report.EmailTo)

	return NewRunner(col, report.NewRenderer(), publisher, mailer, window), nil
}
