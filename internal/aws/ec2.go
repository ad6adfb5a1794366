package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// ListInstances retrieves all EC2 instances in the client's region
func (c *Client) ListInstances(ctx context.Context) ([]types.Instance, error) {
	instances := []types.Instance{}
	paginator := ec2.NewDescribeInstancesPaginator(c.EC2, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			instances = append(instances, reservation.Instances...)
		}
	}
	return instances, nil
}

// GetInstance retrieves a single instance
func (c *Client) GetInstance(ctx context.Context, instanceID string) (types.Instance, error) {
	result, err := c.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return types.Instance{}, fmt.Errorf("failed to describe instance: %w", err)
	}
	if len(result.Reservations) == 0 || len(result.Reservations[0].Instances) == 0 {
		return types.Instance{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}
	return result.Reservations[0].Instances[0], nil
}

// ListAddresses retrieves every elastic IP of the account
func (c *Client) ListAddresses(ctx context.Context) ([]types.Address, error) {
	result, err := c.EC2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe addresses: %w", err)
	}
	if result.Addresses == nil {
		return []types.Address{}, nil
	}
	return result.Addresses, nil
}

// AllocateAddress allocates a VPC elastic IP and returns its record. If
// the follow-up describe fails the allocation response is returned as is.
func (c *Client) AllocateAddress(ctx context.Context) (types.Address, error) {
	out, err := c.EC2.AllocateAddress(ctx, &ec2.AllocateAddressInput{
		Domain: types.DomainTypeVpc,
	})
	if err != nil {
		return types.Address{}, fmt.Errorf("failed to allocate address: %w", err)
	}

	addr := types.Address{
		AllocationId:       out.AllocationId,
		PublicIp:           out.PublicIp,
		Domain:             out.Domain,
		NetworkBorderGroup: out.NetworkBorderGroup,
		PublicIpv4Pool:     out.PublicIpv4Pool,
	}
	described, err := c.EC2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{
		AllocationIds: []string{aws.ToString(out.AllocationId)},
	})
	if err == nil && len(described.Addresses) > 0 {
		addr = described.Addresses[0]
	}
	return addr, nil
}

// AssociateAddress binds an allocation to an instance and returns the
// association id.
func (c *Client) AssociateAddress(ctx context.Context, instanceID, allocationID string) (string, error) {
	out, err := c.EC2.AssociateAddress(ctx, &ec2.AssociateAddressInput{
		InstanceId:   aws.String(instanceID),
		AllocationId: aws.String(allocationID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to associate address: %w", err)
	}
	return aws.ToString(out.AssociationId), nil
}

// DisassociateAddress removes an association
func (c *Client) DisassociateAddress(ctx context.Context, associationID string) error {
	_, err := c.EC2.DisassociateAddress(ctx, &ec2.DisassociateAddressInput{
		AssociationId: aws.String(associationID),
	})
	if err != nil {
		return fmt.Errorf("failed to disassociate address: %w", err)
	}
	return nil
}

// ReleaseAddress returns an allocation to AWS
func (c *Client) ReleaseAddress(ctx context.Context, allocationID string) error {
	_, err := c.EC2.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{
		AllocationId: aws.String(allocationID),
	})
	if err != nil {
		return fmt.Errorf("failed to release address: %w", err)
	}
	return nil
}
