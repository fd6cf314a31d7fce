package enrich

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
)

// Resource type strings as AWS Config reports them.
const (
	TypeEC2Instance    = "AWS::EC2::Instance"
	TypeS3Bucket       = "AWS::S3::Bucket"
	TypeLambdaFunction = "AWS::Lambda::Function"
	TypeRDSInstance    = "AWS::RDS::DBInstance"
)

// EC2API defines the EC2 operations used for enrichment.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// LambdaAPI defines the Lambda operations used for enrichment.
type LambdaAPI interface {
	GetFunction(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error)
}

// RDSAPI defines the RDS operations used for enrichment.
type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// NewDefaultRegistry wires the supported resource types against real AWS
// clients built from cfg. Calls are issued in each resource's own region.
func NewDefaultRegistry(cfg awssdk.Config) *Registry {
	r := NewRegistry()
	r.Register(TypeEC2Instance, &EC2Provider{api: ec2.NewFromConfig(cfg)})
	r.Register(TypeS3Bucket, &S3Provider{})
	r.Register(TypeLambdaFunction, &LambdaProvider{api: lambda.NewFromConfig(cfg)})
	r.Register(TypeRDSInstance, &RDSProvider{api: rds.NewFromConfig(cfg)})
	return r
}

// EC2Provider reports instance type and running state.
type EC2Provider struct {
	api EC2API
}

func (p *EC2Provider) Describe(ctx context.Context, resourceID, region string) (map[string]string, error) {
	out, err := p.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{resourceID},
	}, func(o *ec2.Options) {
		if region != "" {
			o.Region = region
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instance %s: %w", resourceID, err)
	}

	details := map[string]string{}
	if len(out.Reservations) > 0 && len(out.Reservations[0].Instances) > 0 {
		instance := out.Reservations[0].Instances[0]
		details["InstanceType"] = string(instance.InstanceType)
		if instance.State != nil {
			details["State"] = string(instance.State.Name)
		}
	}
	return details, nil
}

// S3Provider reports a fixed Active state; a bucket that shows up in the
// snapshot still exists.
type S3Provider struct{}

func (p *S3Provider) Describe(_ context.Context, _, _ string) (map[string]string, error) {
	return map[string]string{"State": "Active"}, nil
}

// LambdaProvider reports runtime and lifecycle state.
type LambdaProvider struct {
	api LambdaAPI
}

func (p *LambdaProvider) Describe(ctx context.Context, resourceID, region string) (map[string]string, error) {
	out, err := p.api.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: awssdk.String(resourceID),
	}, func(o *lambda.Options) {
		if region != "" {
			o.Region = region
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get function %s: %w", resourceID, err)
	}

	details := map[string]string{}
	if out.Configuration != nil {
		details["Runtime"] = string(out.Configuration.Runtime)
		details["State"] = string(out.Configuration.State)
	}
	return details, nil
}

// RDSProvider reports engine and instance status.
type RDSProvider struct {
	api RDSAPI
}

func (p *RDSProvider) Describe(ctx context.Context, resourceID, region string) (map[string]string, error) {
	out, err := p.api.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: awssdk.String(resourceID),
	}, func(o *rds.Options) {
		if region != "" {
			o.Region = region
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe db instance %s: %w", resourceID, err)
	}

	details := map[string]string{}
	if len(out.DBInstances) > 0 {
		db := out.DBInstances[0]
		details["Engine"] = awssdk.ToString(db.Engine)
		details["State"] = awssdk.ToString(db.DBInstanceStatus)
	}
	return details, nil
}
