package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", nil)
}

func TestListInstancesDecodesSDKShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/instances" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("credential_id"); got != "cred-1" {
			t.Errorf("Expected credential_id cred-1, got %q", got)
		}
		io.WriteString(w, `{"instances":[{
			"InstanceId":"i-0abc","InstanceType":"t3.micro",
			"State":{"Code":16,"Name":"running"},
			"PublicIpAddress":"3.3.3.3","PrivateIpAddress":"10.0.0.5",
			"Placement":{"AvailabilityZone":"us-east-1a"},
			"LaunchTime":"2026-01-02T03:04:05Z",
			"SecurityGroups":[{"GroupName":"web","GroupId":"sg-1"}],
			"Tags":[{"Key":"Name","Value":"api"}]
		}]}`)
	})

	instances, err := client.ListInstances(context.Background(), "cred-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("Expected 1 instance, got %d", len(instances))
	}
	inst := instances[0]
	if inst.ID != "i-0abc" || inst.State != "running" || inst.AvailabilityZone != "us-east-1a" {
		t.Errorf("Unexpected instance: %+v", inst)
	}
	if !inst.LaunchTime.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("Unexpected launch time %v", inst.LaunchTime)
	}
	if len(inst.SecurityGroups) != 1 || inst.SecurityGroups[0].Name != "web" {
		t.Errorf("Unexpected security groups %+v", inst.SecurityGroups)
	}
	if len(inst.Tags) != 1 || inst.Tags[0].Value != "api" {
		t.Errorf("Unexpected tags %+v", inst.Tags)
	}
}

func TestListInstancesMissingArrayIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})
	instances, err := client.ListInstances(context.Background(), "cred-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instances) != 0 {
		t.Errorf("Expected no instances, got %d", len(instances))
	}
}

func TestListElasticIPsNormalizesAssociation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"elastic_ips":[
			{"PublicIp":"1.1.1.1","AllocationId":"eipalloc-1","InstanceId":"i-1","AssociationId":"eipassoc-1"},
			{"PublicIp":"2.2.2.2","AllocationId":"eipalloc-2"},
			{"PublicIp":"3.3.3.3","AllocationId":"eipalloc-3","InstanceId":"i-stale"},
			{"PublicIp":"4.4.4.4","AllocationId":"eipalloc-4","AssociationId":"eipassoc-4","NetworkInterfaceId":"eni-4"}
		]}`)
	})

	eips, err := client.ListElasticIPs(context.Background(), "cred-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eips) != 4 {
		t.Fatalf("Expected 4 elastic IPs, got %d", len(eips))
	}
	for _, eip := range eips {
		if (eip.AssociationID != "") != (eip.InstanceID != "") {
			t.Errorf("partial association rendered for %s: %+v", eip.AllocationID, eip)
		}
	}
	if eips[2].InstanceID != "" {
		t.Errorf("Expected stale instance id dropped, got %q", eips[2].InstanceID)
	}
	if eips[3].InstanceID != "eni-4" {
		t.Errorf("Expected network interface as target, got %q", eips[3].InstanceID)
	}
}

func TestStatusErrorCarriesCodeAndMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"UnauthorizedOperation: denied"}`)
	})

	_, err := client.ListElasticIPs(context.Background(), "cred-1")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %T: %v", err, err)
	}
	if statusErr.Code != 500 {
		t.Errorf("Expected code 500, got %d", statusErr.Code)
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "denied") {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, nil)

	err := client.AllocateElasticIP(context.Background(), "cred-1")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %T: %v", err, err)
	}
}

func TestCreateCredentialValidatesBeforeRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.CreateCredential(context.Background(), CredentialInput{
		Name: "prod", AccessKey: "AKIA", SecretKey: "  ", Region: "us-east-1",
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
	if validationErr.Field != "secret key" {
		t.Errorf("Expected secret key field, got %q", validationErr.Field)
	}
	if called {
		t.Error("Expected no request for invalid input")
	}
}

func TestCreateCredentialSendsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		var in CredentialInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if in.SecretKey != "s3cr3t" {
			t.Errorf("Expected secret in body, got %q", in.SecretKey)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"credential":{"id":"c1","name":"prod","access_key":"AKIA","region":"us-east-1"}}`)
	})

	cred, err := client.CreateCredential(context.Background(), CredentialInput{
		Name: "prod", AccessKey: "AKIA", SecretKey: "s3cr3t", Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.ID != "c1" {
		t.Errorf("Expected id c1, got %q", cred.ID)
	}
}

func TestMutationBodies(t *testing.T) {
	tests := []struct {
		name     string
		call     func(c *Client) error
		wantPath string
		wantBody map[string]string
	}{
		{
			name:     "associate",
			call:     func(c *Client) error { return c.AssociateElasticIP(context.Background(), "cred-1", "i-1", "eipalloc-1") },
			wantPath: "/api/instances/i-1/associate-eip",
			wantBody: map[string]string{"credential_id": "cred-1", "allocation_id": "eipalloc-1"},
		},
		{
			name:     "disassociate",
			call:     func(c *Client) error { return c.DisassociateElasticIP(context.Background(), "cred-1", "eipassoc-1") },
			wantPath: "/api/instances/disassociate-eip",
			wantBody: map[string]string{"credential_id": "cred-1", "association_id": "eipassoc-1"},
		},
		{
			name:     "release",
			call:     func(c *Client) error { return c.ReleaseElasticIP(context.Background(), "cred-1", "eipalloc-1") },
			wantPath: "/api/instances/release-eip",
			wantBody: map[string]string{"credential_id": "cred-1", "allocation_id": "eipalloc-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("Expected path %s, got %s", tt.wantPath, r.URL.Path)
				}
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if len(body) != len(tt.wantBody) {
					t.Errorf("Expected body %v, got %v", tt.wantBody, body)
				}
				for k, v := range tt.wantBody {
					if body[k] != v {
						t.Errorf("Expected %s=%s, got %q", k, v, body[k])
					}
				}
			})
			if err := tt.call(client); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateCredentialReportsUndecodableResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `["unexpected"]`)
	})

	_, err := client.CreateCredential(context.Background(), CredentialInput{
		Name: "prod", AccessKey: "AKIA", SecretKey: "secret", Region: "us-east-1",
	})
	if err == nil || !strings.Contains(err.Error(), "create credential: decode response") {
		t.Errorf("Expected decode error, got %v", err)
	}
}
