package api

import (
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Credential is a saved credential profile. SecretKey is only ever sent,
// the backend never returns it.
type Credential struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AccessKey string    `json:"access_key"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

// CredentialInput is the body of a create request.
type CredentialInput struct {
	Name      string `json:"name"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
}

// Validate requires every field to be non-blank.
func (in CredentialInput) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"name", in.Name},
		{"access key", in.AccessKey},
		{"secret key", in.SecretKey},
		{"region", in.Region},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Message: "all fields are required"}
		}
	}
	return nil
}

// Instance represents an EC2 instance with the fields the panel shows
type Instance struct {
	ID               string
	InstanceType     string
	State            string
	PublicIP         string
	PrivateIP        string
	AvailabilityZone string
	LaunchTime       time.Time
	SecurityGroups   []SecurityGroup
	Tags             []Tag
}

// SecurityGroup represents a security group attached to an instance
type SecurityGroup struct {
	ID   string
	Name string
}

// Tag represents a key-value pair for an AWS tag
type Tag struct {
	Key   string
	Value string
}

// ElasticIP is an allocated address. AssociationID and InstanceID are
// either both set or both empty.
type ElasticIP struct {
	PublicIP      string
	AllocationID  string
	InstanceID    string
	AssociationID string
}

// Associated reports whether the address is bound to a target.
func (e ElasticIP) Associated() bool { return e.AssociationID != "" }

func instanceFromSDK(inst types.Instance) Instance {
	instance := Instance{
		ID:           aws.ToString(inst.InstanceId),
		InstanceType: string(inst.InstanceType),
		PublicIP:     aws.ToString(inst.PublicIpAddress),
		PrivateIP:    aws.ToString(inst.PrivateIpAddress),
	}
	if inst.State != nil {
		instance.State = string(inst.State.Name)
	}
	if inst.Placement != nil {
		instance.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if inst.LaunchTime != nil {
		instance.LaunchTime = *inst.LaunchTime
	}
	for _, sg := range inst.SecurityGroups {
		instance.SecurityGroups = append(instance.SecurityGroups, SecurityGroup{
			ID:   aws.ToString(sg.GroupId),
			Name: aws.ToString(sg.GroupName),
		})
	}
	for _, tag := range inst.Tags {
		instance.Tags = append(instance.Tags, Tag{Key: aws.ToString(tag.Key), Value: aws.ToString(tag.Value)})
	}
	return instance
}

// elasticIPFromSDK folds partial association records into one of the two
// legal shapes.
func elasticIPFromSDK(addr types.Address) ElasticIP {
	eip := ElasticIP{
		PublicIP:      aws.ToString(addr.PublicIp),
		AllocationID:  aws.ToString(addr.AllocationId),
		InstanceID:    aws.ToString(addr.InstanceId),
		AssociationID: aws.ToString(addr.AssociationId),
	}
	switch {
	case eip.AssociationID == "":
		eip.InstanceID = ""
	case eip.InstanceID == "":
		eip.InstanceID = aws.ToString(addr.NetworkInterfaceId)
		if eip.InstanceID == "" {
			eip.InstanceID = "unknown"
		}
	}
	return eip
}
