package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEC2Client struct {
	DescribeInstancesFunc func(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

func (m *mockEC2Client) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return m.DescribeInstancesFunc(ctx, params, optFns...)
}

type mockLambdaClient struct {
	GetFunctionFunc func(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error)
}

func (m *mockLambdaClient) GetFunction(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
	return m.GetFunctionFunc(ctx, params, optFns...)
}

type mockRDSClient struct {
	DescribeDBInstancesFunc func(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

func (m *mockRDSClient) DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	return m.DescribeDBInstancesFunc(ctx, params, optFns...)
}

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry()
	details := r.Describe(context.Background(), "AWS::DynamoDB::Table", "my-table", "us-east-1")
	assert.Empty(t, details)
}

func TestRegistry_ProviderFailure(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeEC2Instance, &EC2Provider{api: &mockEC2Client{
		DescribeInstancesFunc: func(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
			return nil, errors.New("InvalidInstanceID.NotFound")
		},
	}})

	details := r.Describe(context.Background(), TypeEC2Instance, "i-gone", "us-east-1")
	assert.Equal(t, map[string]string{"State": "Unknown"}, details)
}

func TestEC2Provider(t *testing.T) {
	mock := &mockEC2Client{
		DescribeInstancesFunc: func(_ context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
			require.Equal(t, []string{"i-123"}, params.InstanceIds)
			return &ec2.DescribeInstancesOutput{
				Reservations: []ec2types.Reservation{
					{
						Instances: []ec2types.Instance{
							{
								InstanceType: ec2types.InstanceTypeT3Micro,
								State:        &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
							},
						},
					},
				},
			}, nil
		},
	}

	r := NewRegistry()
	r.Register(TypeEC2Instance, &EC2Provider{api: mock})

	details := r.Describe(context.Background(), TypeEC2Instance, "i-123", "us-east-1")
	assert.Equal(t, "t3.micro", details["InstanceType"])
	assert.Equal(t, "running", details["State"])
}

func TestS3Provider(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeS3Bucket, &S3Provider{})

	details := r.Describe(context.Background(), TypeS3Bucket, "my-bucket", "us-east-1")
	assert.Equal(t, map[string]string{"State": "Active"}, details)
}

func TestLambdaProvider(t *testing.T) {
	mock := &mockLambdaClient{
		GetFunctionFunc: func(_ context.Context, params *lambda.GetFunctionInput, _ ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
			require.Equal(t, "my-fn", aws.ToString(params.FunctionName))
			return &lambda.GetFunctionOutput{
				Configuration: &lambdatypes.FunctionConfiguration{
					Runtime: lambdatypes.RuntimeGo1x,
					State:   lambdatypes.StateActive,
				},
			}, nil
		},
	}

	r := NewRegistry()
	r.Register(TypeLambdaFunction, &LambdaProvider{api: mock})

	details := r.Describe(context.Background(), TypeLambdaFunction, "my-fn", "eu-west-1")
	assert.Equal(t, "go1.x", details["Runtime"])
	assert.Equal(t, "Active", details["State"])
}

func TestRDSProvider(t *testing.T) {
	mock := &mockRDSClient{
		DescribeDBInstancesFunc: func(_ context.Context, params *rds.DescribeDBInstancesInput, _ ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
			require.Equal(t, "my-db", aws.ToString(params.DBInstanceIdentifier))
			return &rds.DescribeDBInstancesOutput{
				DBInstances: []rdstypes.DBInstance{
					{
						Engine:           aws.String("postgres"),
						DBInstanceStatus: aws.String("available"),
					},
				},
			}, nil
		},
	}

	r := NewRegistry()
	r.Register(TypeRDSInstance, &RDSProvider{api: mock})

	details := r.Describe(context.Background(), TypeRDSInstance, "my-db", "us-east-1")
	assert.Equal(t, "postgres", details["Engine"])
	assert.Equal(t, "available", details["State"])
}
