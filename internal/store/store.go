// Package store keeps saved AWS credential profiles in an age-encrypted
// JSON file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filippo.io/age"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown credential ids.
var ErrNotFound = errors.New("credential not found")

// Credential is a saved profile. SecretKey is only populated by Secret.
type Credential struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AccessKey string    `json:"access_key"`
	SecretKey string    `json:"secret_key,omitempty"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Credential) redacted() Credential {
	c.SecretKey = ""
	return c
}

// LoadOrCreateIdentity reads the X25519 identity at path, generating and
// writing a new one (mode 0600) if the file does not exist.
func LoadOrCreateIdentity(path string) (*age.X25519Identity, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("parsing identity %s: %w", path, err)
		}
		return identity, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading identity %s: %w", path, err)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating identity directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(identity.String()+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("writing identity %s: %w", path, err)
	}
	return identity, nil
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	identity *age.X25519Identity
	creds    []Credential
	now      func() time.Time
}

// Open loads the credential file at path. A missing file is an empty store.
func Open(path string, identity *age.X25519Identity) (*Store, error) {
	s := &Store{path: path, identity: identity, now: time.Now}

	ciphertext, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials %s: %w", path, err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials %s: %w", path, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted credentials: %w", err)
	}
	if err := json.Unmarshal(plaintext, &s.creds); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}
	return s, nil
}

// List returns every credential in creation order, without secrets.
func (s *Store) List() []Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Credential, 0, len(s.creds))
	for _, c := range s.creds {
		out = append(out, c.redacted())
	}
	return out
}

// Get returns one credential without its secret.
func (s *Store) Get(id string) (Credential, error) {
	c, err := s.Secret(id)
	if err != nil {
		return Credential{}, err
	}
	return c.redacted(), nil
}

// Secret returns one credential including its secret key.
func (s *Store) Secret(id string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creds {
		if c.ID == id {
			return c, nil
		}
	}
	return Credential{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Add saves a new credential and returns it without its secret.
func (s *Store) Add(name, accessKey, secretKey, region string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Credential{
		ID:        uuid.NewString(),
		Name:      name,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Region:    region,
		CreatedAt: s.now().UTC(),
	}
	next := append(append([]Credential(nil), s.creds...), c)
	if err := s.save(next); err != nil {
		return Credential{}, err
	}
	s.creds = next
	return c.redacted(), nil
}

// Delete removes a credential.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Credential, 0, len(s.creds))
	for _, c := range s.creds {
		if c.ID != id {
			next = append(next, c)
		}
	}
	if len(next) == len(s.creds) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.creds = next
	return nil
}

// save encrypts creds to the store's identity and replaces the file
// atomically.
func (s *Store) save(creds []Credential) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, s.identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, ciphertext.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing credentials: %w", err)
	}
	return nil
}
