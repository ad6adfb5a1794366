package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

// EC2API is the subset of the EC2 client the backend calls.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeAddresses(ctx context.Context, params *ec2.DescribeAddressesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error)
	AllocateAddress(ctx context.Context, params *ec2.AllocateAddressInput, optFns ...func(*ec2.Options)) (*ec2.AllocateAddressOutput, error)
	AssociateAddress(ctx context.Context, params *ec2.AssociateAddressInput, optFns ...func(*ec2.Options)) (*ec2.AssociateAddressOutput, error)
	DisassociateAddress(ctx context.Context, params *ec2.DisassociateAddressInput, optFns ...func(*ec2.Options)) (*ec2.DisassociateAddressOutput, error)
	ReleaseAddress(ctx context.Context, params *ec2.ReleaseAddressInput, optFns ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error)
}

// STSAPI is the subset of the STS client used to check credentials.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ErrInstanceNotFound is returned when a lookup matches no instance.
var ErrInstanceNotFound = errors.New("instance not found")

// Client wraps the EC2 client of one saved credential
type Client struct {
	EC2    EC2API
	Region string
}

func staticConfig(ctx context.Context, region, accessKey, secretKey string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
}

// NewClientWithStaticCredentials creates a client for a saved access key.
// Shared config files and environment credentials are not consulted.
func NewClientWithStaticCredentials(ctx context.Context, region, accessKey, secretKey string) (*Client, error) {
	cfg, err := staticConfig(ctx, region, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Client{
		EC2:    ec2.NewFromConfig(cfg),
		Region: cfg.Region,
	}, nil
}

// VerifyIdentity checks that the key pair is accepted by AWS.
func VerifyIdentity(ctx context.Context, region, accessKey, secretKey string) error {
	cfg, err := staticConfig(ctx, region, accessKey, secretKey)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	return verify(ctx, sts.NewFromConfig(cfg))
}

func verify(ctx context.Context, api STSAPI) error {
	if _, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return fmt.Errorf("failed to verify credentials: %w", err)
	}
	return nil
}

// ErrorMessage renders err for API responses. AWS API errors are reduced
// to "code: message".
func ErrorMessage(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}

// IsNotFound reports whether err means the requested resource is unknown.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrInstanceNotFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidInstanceID.NotFound", "InvalidAllocationID.NotFound", "InvalidAssociationID.NotFound":
			return true
		}
	}
	return false
}
