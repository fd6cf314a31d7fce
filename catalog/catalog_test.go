package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haltiala/vahti/types"
)

type mockConfigClient struct {
	SelectResourceConfigFunc func(ctx context.Context, params *configservice.SelectResourceConfigInput, optFns ...func(*configservice.Options)) (*configservice.SelectResourceConfigOutput, error)
}

func (m *mockConfigClient) SelectResourceConfig(ctx context.Context, params *configservice.SelectResourceConfigInput, optFns ...func(*configservice.Options)) (*configservice.SelectResourceConfigOutput, error) {
	return m.SelectResourceConfigFunc(ctx, params, optFns...)
}

func drain(t *testing.T, s *Stream) []Item {
	t.Helper()
	var items []Item
	for {
		item, ok, err := s.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return items
		}
		items = append(items, item)
	}
}

func TestSnapshotStream(t *testing.T) {
	pages := [][]string{
		{
			`{"resourceId":"i-1","resourceType":"AWS::EC2::Instance","awsRegion":"us-east-1","configurationItemCaptureTime":"2025-03-14T10:00:00.000Z","tags":{"Name":"web"}}`,
			`{"resourceId":"b-1","resourceType":"AWS::S3::Bucket","awsRegion":"us-east-1"}`,
		},
		{
			`{"resourceId":"fn-1","resourceType":"AWS::Lambda::Function","awsRegion":"eu-west-1"}`,
		},
	}
	call := 0
	mock := &mockConfigClient{
		SelectResourceConfigFunc: func(_ context.Context, params *configservice.SelectResourceConfigInput, _ ...func(*configservice.Options)) (*configservice.SelectResourceConfigOutput, error) {
			assert.Contains(t, aws.ToString(params.Expression), "ResourceDiscovered")
			out := &configservice.SelectResourceConfigOutput{Results: pages[call]}
			call++
			if call < len(pages) {
				out.NextToken = aws.String("more")
			}
			return out, nil
		},
	}

	items := drain(t, NewClient(mock).Snapshot())

	require.Len(t, items, 3)
	assert.Equal(t, "i-1", items[0].ResourceID)
	assert.Equal(t, "web", items[0].Tags["Name"])
	assert.Equal(t, "fn-1", items[2].ResourceID)
	assert.Equal(t, 2, call)
}

func TestDeletedDuring_ExpressionBounds(t *testing.T) {
	var expression string
	mock := &mockConfigClient{
		SelectResourceConfigFunc: func(_ context.Context, params *configservice.SelectResourceConfigInput, _ ...func(*configservice.Options)) (*configservice.SelectResourceConfigOutput, error) {
			expression = aws.ToString(params.Expression)
			return &configservice.SelectResourceConfigOutput{}, nil
		},
	}

	w := types.WindowFor(time.Date(2025, 3, 15, 6, 0, 0, 0, time.UTC))
	drain(t, NewClient(mock).DeletedDuring(w))

	assert.Contains(t, expression, "ResourceDeleted")
	assert.Contains(t, expression, "2025-03-14T00:00:00.000Z")
	assert.Contains(t, expression, "2025-03-15T00:00:00.000Z")
}

func TestStream_SkipsMalformedRow(t *testing.T) {
	mock := &mockConfigClient{
		SelectResourceConfigFunc: func(_ context.Context, _ *configservice.SelectResourceConfigInput, _ ...func(*configservice.Options)) (*configservice.SelectResourceConfigOutput, error) {
			return &configservice.SelectResourceConfigOutput{
				Results: []string{`not json`, `{"resourceId":"i-2"}`},
			}, nil
		},
	}

	items := drain(t, NewClient(mock).Snapshot())

	require.Len(t, items, 1)
	assert.Equal(t, "i-2", items[0].ResourceID)
}

func TestStream_QueryError(t *testing.T) {
	mock := &mockConfigClient{
		SelectResourceConfigFunc: func(_ context.Context, _ *configservice.SelectResourceConfigInput, _ ...func(*configservice.Options)) (*configservice.SelectResourceConfigOutput, error) {
			return nil, errors.New("service unreachable")
		},
	}

	_, _, err := NewClient(mock).Snapshot().Next(context.Background())
	assert.ErrorContains(t, err, "catalog page")
}
