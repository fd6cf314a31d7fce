// Package notify delivers the run summary and download link to the
// report's distribution list.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/haltiala/vahti/telemetry"
	"github.com/haltiala/vahti/types"
)

// SESAPI defines the email operation the mailer uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer sends the daily report notification.
type Mailer struct {
	api    SESAPI
	from   string
	to     []string
	logger *telemetry.Logger
}

// NewMailer creates a mailer for the configured sender and recipients.
func NewMailer(api SESAPI, from string, to []string) *Mailer {
	return &Mailer{
		api:    api,
		from:   from,
		to:     to,
		logger: telemetry.NewLogger("notify"),
	}
}

// Notify sends exactly one message for a completed run. Delivery failure is
// returned to the caller; this component never retries.
func (m *Mailer) Notify(ctx context.Context, reportDate string, summary types.RunSummary, url string, generatedAt time.Time) error {
	subject := fmt.Sprintf("📊 AWS Resource Report - %s", reportDate)
	body := buildBody(reportDate, summary, url, generatedAt)

	_, err := m.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination: &sestypes.Destination{
			ToAddresses: m.to,
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send report notification: %w", err)
	}

	m.logger.WithContext(ctx).Info().
		Str("report_date", reportDate).
		Strs("recipients", m.to).
		Msg("notification sent")
	return nil
}

// buildBody renders the fixed plain-text message: summary counts, color
// legend, download link with its expiry note, and the generation timestamp.
func buildBody(reportDate string, summary types.RunSummary, url string, generatedAt time.Time) string {
	var summaryLines []string
	for _, ct := range types.SummaryOrder {
		if n, ok := summary[ct]; ok {
			summaryLines = append(summaryLines, fmt.Sprintf("%s: %d", ct, n))
		}
	}

	return fmt.Sprintf(`AWS Resource Daily Report - %s

Summary of Changes:
%s

Total Resources Tracked: %d

Color Coding:
🟢 Green: Newly Created Resources
🟡 Yellow: Modified Resources
🔴 Red: Deleted Resources
🔵 Blue: Existing Resources (no changes)

Download your detailed Excel report here:
%s

This link expires in 24 hours.

Report generated at: %s UTC`,
		reportDate,
		strings.Join(summaryLines, "\n"),
		summary.Total(),
		url,
		generatedAt.UTC().Format(types.TimeLayout),
	)
}
