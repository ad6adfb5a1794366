// Package server implements the REST backend the panel talks to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/gorilla/mux"

	"github.com/noelruault/lazyeip/internal/aws"
	"github.com/noelruault/lazyeip/internal/store"
)

// Credentials is the credential storage the handlers use.
type Credentials interface {
	List() []store.Credential
	Get(id string) (store.Credential, error)
	Secret(id string) (store.Credential, error)
	Add(name, accessKey, secretKey, region string) (store.Credential, error)
	Delete(id string) error
}

// EC2 is one credential's view of EC2.
type EC2 interface {
	ListInstances(ctx context.Context) ([]types.Instance, error)
	GetInstance(ctx context.Context, instanceID string) (types.Instance, error)
	ListAddresses(ctx context.Context) ([]types.Address, error)
	AllocateAddress(ctx context.Context) (types.Address, error)
	AssociateAddress(ctx context.Context, instanceID, allocationID string) (string, error)
	DisassociateAddress(ctx context.Context, associationID string) error
	ReleaseAddress(ctx context.Context, allocationID string) error
}

// ClientFactory builds an EC2 client for a saved key pair.
type ClientFactory func(ctx context.Context, region, accessKey, secretKey string) (EC2, error)

// Verifier checks a key pair before it is saved.
type Verifier func(ctx context.Context, region, accessKey, secretKey string) error

// Server holds the handler dependencies.
type Server struct {
	// Verify, when set, must accept a key pair before it is stored.
	Verify Verifier

	creds   Credentials
	clients ClientFactory
	logger  *slog.Logger
}

// New creates a server.
func New(creds Credentials, clients ClientFactory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{creds: creds, clients: clients, logger: logger}
}

// Handler returns the router rooted at /api.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/credentials", s.listCredentials).Methods(http.MethodGet)
	api.HandleFunc("/credentials", s.addCredential).Methods(http.MethodPost)
	api.HandleFunc("/credentials/{id}", s.getCredential).Methods(http.MethodGet)
	api.HandleFunc("/credentials/{id}", s.deleteCredential).Methods(http.MethodDelete)

	api.HandleFunc("/instances", s.listInstances).Methods(http.MethodGet)
	api.HandleFunc("/instances/allocate-eip", s.allocateAddress).Methods(http.MethodPost)
	api.HandleFunc("/instances/disassociate-eip", s.disassociateAddress).Methods(http.MethodPost)
	api.HandleFunc("/instances/release-eip", s.releaseAddress).Methods(http.MethodPost)
	api.HandleFunc("/instances/{id}", s.getInstance).Methods(http.MethodGet)
	api.HandleFunc("/instances/{id}/associate-eip", s.associateAddress).Methods(http.MethodPost)

	api.HandleFunc("/elastic-ips", s.listAddresses).Methods(http.MethodGet)
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// fail maps err to a status: unknown credentials and resources are 404,
// everything else 500.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) || aws.IsNotFound(err) {
		status = http.StatusNotFound
	}
	s.logger.Error(op+" failed", "status", status, "error", err)
	writeError(w, status, aws.ErrorMessage(err))
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// client resolves credentialID to an EC2 client.
func (s *Server) client(ctx context.Context, credentialID string) (EC2, error) {
	cred, err := s.creds.Secret(credentialID)
	if err != nil {
		return nil, err
	}
	return s.clients(ctx, cred.Region, cred.AccessKey, cred.SecretKey)
}

// scoped resolves the credential_id query parameter, writing a 400 when it
// is missing.
func (s *Server) scoped(w http.ResponseWriter, r *http.Request) (EC2, bool) {
	credentialID := r.URL.Query().Get("credential_id")
	if credentialID == "" {
		writeError(w, http.StatusBadRequest, "missing credential_id parameter")
		return nil, false
	}
	c, err := s.client(r.Context(), credentialID)
	if err != nil {
		s.fail(w, "resolve credential", err)
		return nil, false
	}
	return c, true
}

type credentialInput struct {
	Name      string `json:"name"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
}

func (in credentialInput) complete() bool {
	for _, v := range []string{in.Name, in.AccessKey, in.SecretKey, in.Region} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func (s *Server) listCredentials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"credentials": s.creds.List()})
}

func (s *Server) addCredential(w http.ResponseWriter, r *http.Request) {
	var in credentialInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !in.complete() {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}
	if s.Verify != nil {
		if err := s.Verify(r.Context(), in.Region, in.AccessKey, in.SecretKey); err != nil {
			s.logger.Warn("credential verification failed", "name", in.Name, "error", err)
			writeError(w, http.StatusBadRequest, aws.ErrorMessage(err))
			return
		}
	}
	cred, err := s.creds.Add(in.Name, in.AccessKey, in.SecretKey, in.Region)
	if err != nil {
		s.fail(w, "add credential", err)
		return
	}
	s.logger.Info("credential added", "credential_id", cred.ID, "name", cred.Name)
	writeJSON(w, http.StatusCreated, map[string]any{"credential": cred})
}

func (s *Server) getCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := s.creds.Get(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, "get credential", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credential": cred})
}

func (s *Server) deleteCredential(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.creds.Delete(id); err != nil {
		s.fail(w, "delete credential", err)
		return
	}
	s.logger.Info("credential deleted", "credential_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "credential deleted"})
}

func (s *Server) listInstances(w http.ResponseWriter, r *http.Request) {
	c, ok := s.scoped(w, r)
	if !ok {
		return
	}
	instances, err := c.ListInstances(r.Context())
	if err != nil {
		s.fail(w, "list instances", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": instances})
}

func (s *Server) getInstance(w http.ResponseWriter, r *http.Request) {
	c, ok := s.scoped(w, r)
	if !ok {
		return
	}
	inst, err := c.GetInstance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, "get instance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instance": inst})
}

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request) {
	c, ok := s.scoped(w, r)
	if !ok {
		return
	}
	addrs, err := c.ListAddresses(r.Context())
	if err != nil {
		s.fail(w, "list elastic IPs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"elastic_ips": addrs})
}

func (s *Server) allocateAddress(w http.ResponseWriter, r *http.Request) {
	c, ok := s.scoped(w, r)
	if !ok {
		return
	}
	addr, err := c.AllocateAddress(r.Context())
	if err != nil {
		s.fail(w, "allocate elastic IP", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"elastic_ip": addr})
}

type addressRequest struct {
	CredentialID  string `json:"credential_id"`
	AllocationID  string `json:"allocation_id"`
	AssociationID string `json:"association_id"`
}

// bodyScoped decodes an addressRequest and resolves its credential. field
// names the id the operation requires.
func (s *Server) bodyScoped(w http.ResponseWriter, r *http.Request, field string) (EC2, addressRequest, bool) {
	var req addressRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, req, false
	}
	value := req.AllocationID
	if field == "association_id" {
		value = req.AssociationID
	}
	if req.CredentialID == "" || value == "" {
		writeError(w, http.StatusBadRequest, "credential_id and "+field+" are required")
		return nil, req, false
	}
	c, err := s.client(r.Context(), req.CredentialID)
	if err != nil {
		s.fail(w, "resolve credential", err)
		return nil, req, false
	}
	return c, req, true
}

func (s *Server) associateAddress(w http.ResponseWriter, r *http.Request) {
	c, req, ok := s.bodyScoped(w, r, "allocation_id")
	if !ok {
		return
	}
	instanceID := mux.Vars(r)["id"]
	associationID, err := c.AssociateAddress(r.Context(), instanceID, req.AllocationID)
	if err != nil {
		s.fail(w, "associate elastic IP", err)
		return
	}
	s.logger.Info("elastic IP associated", "instance_id", instanceID, "allocation_id", req.AllocationID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":        "elastic IP associated",
		"association_id": associationID,
	})
}

func (s *Server) disassociateAddress(w http.ResponseWriter, r *http.Request) {
	c, req, ok := s.bodyScoped(w, r, "association_id")
	if !ok {
		return
	}
	if err := c.DisassociateAddress(r.Context(), req.AssociationID); err != nil {
		s.fail(w, "disassociate elastic IP", err)
		return
	}
	s.logger.Info("elastic IP disassociated", "association_id", req.AssociationID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "elastic IP disassociated"})
}

func (s *Server) releaseAddress(w http.ResponseWriter, r *http.Request) {
	c, req, ok := s.bodyScoped(w, r, "allocation_id")
	if !ok {
		return
	}
	if err := c.ReleaseAddress(r.Context(), req.AllocationID); err != nil {
		s.fail(w, "release elastic IP", err)
		return
	}
	s.logger.Info("elastic IP released", "allocation_id", req.AllocationID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "elastic IP released"})
}
