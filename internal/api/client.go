// Package api is the HTTP client for the lazyeip backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/go-querystring/query"
)

// Client talks to the REST backend rooted at BaseURL (for example
// http://localhost:8080/api).
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Logger:  logger,
	}
}

type scope struct {
	CredentialID string `url:"credential_id"`
}

type credentialBody struct {
	CredentialID  string `json:"credential_id"`
	AllocationID  string `json:"allocation_id,omitempty"`
	AssociationID string `json:"association_id,omitempty"`
}

// ListCredentials retrieves all saved credential profiles
func (c *Client) ListCredentials(ctx context.Context) ([]Credential, error) {
	var out struct {
		Credentials []Credential `json:"credentials"`
	}
	if err := c.do(ctx, "list credentials", http.MethodGet, "/credentials", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Credentials, nil
}

// CreateCredential stores a new credential profile
func (c *Client) CreateCredential(ctx context.Context, in CredentialInput) (Credential, error) {
	if err := in.Validate(); err != nil {
		return Credential{}, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, "create credential", http.MethodPost, "/credentials", nil, in, &raw); err != nil {
		return Credential{}, err
	}
	// The backend wraps the record as {"credential": {...}}; accept a bare
	// record too.
	var wrapped struct {
		Credential *Credential `json:"credential"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &wrapped) == nil && wrapped.Credential != nil {
		return *wrapped.Credential, nil
	}
	var cred Credential
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cred); err != nil {
			return Credential{}, fmt.Errorf("create credential: decode response: %w", err)
		}
	}
	return cred, nil
}

// DeleteCredential removes a credential profile
func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	return c.do(ctx, "delete credential", http.MethodDelete, "/credentials/"+url.PathEscape(id), nil, nil, nil)
}

// ListInstances retrieves all EC2 instances visible to the credential
func (c *Client) ListInstances(ctx context.Context, credentialID string) ([]Instance, error) {
	var out struct {
		Instances []types.Instance `json:"instances"`
	}
	if err := c.do(ctx, "list instances", http.MethodGet, "/instances", &scope{credentialID}, nil, &out); err != nil {
		return nil, err
	}
	instances := make([]Instance, 0, len(out.Instances))
	for _, inst := range out.Instances {
		instances = append(instances, instanceFromSDK(inst))
	}
	return instances, nil
}

// GetInstance retrieves a single EC2 instance
func (c *Client) GetInstance(ctx context.Context, credentialID, instanceID string) (Instance, error) {
	var out struct {
		Instance *types.Instance `json:"instance"`
	}
	path := "/instances/" + url.PathEscape(instanceID)
	if err := c.do(ctx, "get instance", http.MethodGet, path, &scope{credentialID}, nil, &out); err != nil {
		return Instance{}, err
	}
	if out.Instance == nil {
		return Instance{}, fmt.Errorf("get instance: instance %s missing from response", instanceID)
	}
	return instanceFromSDK(*out.Instance), nil
}

// ListElasticIPs retrieves every elastic IP, associated or not
func (c *Client) ListElasticIPs(ctx context.Context, credentialID string) ([]ElasticIP, error) {
	var out struct {
		ElasticIPs []types.Address `json:"elastic_ips"`
	}
	if err := c.do(ctx, "list elastic IPs", http.MethodGet, "/elastic-ips", &scope{credentialID}, nil, &out); err != nil {
		return nil, err
	}
	eips := make([]ElasticIP, 0, len(out.ElasticIPs))
	for _, addr := range out.ElasticIPs {
		eips = append(eips, elasticIPFromSDK(addr))
	}
	return eips, nil
}

// AllocateElasticIP allocates a new VPC elastic IP
func (c *Client) AllocateElasticIP(ctx context.Context, credentialID string) error {
	return c.do(ctx, "allocate elastic IP", http.MethodPost, "/instances/allocate-eip", &scope{credentialID}, nil, nil)
}

// AssociateElasticIP binds the allocation to the instance
func (c *Client) AssociateElasticIP(ctx context.Context, credentialID, instanceID, allocationID string) error {
	path := "/instances/" + url.PathEscape(instanceID) + "/associate-eip"
	body := credentialBody{CredentialID: credentialID, AllocationID: allocationID}
	return c.do(ctx, "associate elastic IP", http.MethodPost, path, nil, body, nil)
}

// DisassociateElasticIP removes an association
func (c *Client) DisassociateElasticIP(ctx context.Context, credentialID, associationID string) error {
	body := credentialBody{CredentialID: credentialID, AssociationID: associationID}
	return c.do(ctx, "disassociate elastic IP", http.MethodPost, "/instances/disassociate-eip", nil, body, nil)
}

// ReleaseElasticIP gives the address back to AWS
func (c *Client) ReleaseElasticIP(ctx context.Context, credentialID, allocationID string) error {
	body := credentialBody{CredentialID: credentialID, AllocationID: allocationID}
	return c.do(ctx, "release elastic IP", http.MethodPost, "/instances/release-eip", nil, body, nil)
}

// do issues one request. params is encoded with go-querystring, in is sent
// as JSON, and a 2xx body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, params any, in any, out any) error {
	target := c.BaseURL + path
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("%s: encode query: %w", op, err)
		}
		target += "?" + values.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("api request", "op", op, "method", method, "url", target)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Error("api request failed", "op", op, "error", err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		c.Logger.Error("api request rejected", "op", op, "status", resp.StatusCode, "error", apiErr.Error)
		return &StatusError{Op: op, Code: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
