package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/certgen/internal/atomicfile"
)

// InventoryFile is the name of the inventory kept next to the key and certificate files.
const InventoryFile = "inventory.json"

const inventoryVersion = 1

var _ CertificateStore = (*FileCertificateStore)(nil)

// inventory is the on-disk document.
type inventory struct {
	Version      int                      `json:"version"`
	Certificates map[string]*CertMetadata `json:"certificates"`
}

// FileCertificateStore keeps the inventory as a JSON file, rewritten atomically on every change.
type FileCertificateStore struct {
	mu   sync.Mutex
	path string
}

// NewFileCertificateStore creates a store backed by {dir}/inventory.json. The file is created on first Register.
func NewFileCertificateStore(dir string) *FileCertificateStore {
	return &FileCertificateStore{path: filepath.Join(dir, InventoryFile)}
}

// Path returns the inventory file path.
func (s *FileCertificateStore) Path() string {
	return s.path
}

// Get retrieves certificate metadata by name
func (s *FileCertificateStore) Get(ctx context.Context, name string) (*CertMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.load()
	if err != nil {
		return nil, err
	}

	cert, ok := inv.Certificates[name]
	if !ok {
		return nil, ErrCertNotFound
	}

	return copyCert(cert), nil
}

// GetByFingerprint retrieves certificate by fingerprint
func (s *FileCertificateStore) GetByFingerprint(ctx context.Context, fingerprint string) (*CertMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, cert := range inv.Certificates {
		if cert.Fingerprint == fingerprint {
			return copyCert(cert), nil
		}
	}

	return nil, ErrCertNotFound
}

// Register stores certificate metadata, replacing the record with the same name
func (s *FileCertificateStore) Register(ctx context.Context, cert *CertMetadata) error {
	if cert.Name == "" {
		return ErrInvalidCert
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.load()
	if err != nil {
		return err
	}

	inv.Certificates[cert.Name] = copyCert(cert)

	if err := s.save(inv); err != nil {
		return err
	}

	log.Debug().
		Str("name", cert.Name).
		Str("fingerprint", cert.Fingerprint).
		Str("path", s.path).
		Msg("certificate registered in inventory")

	return nil
}

// List returns registered certificates sorted by name
func (s *FileCertificateStore) List(ctx context.Context, opts ListCertificatesOptions) ([]*CertMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.load()
	if err != nil {
		return nil, err
	}

	certs := make([]*CertMetadata, 0, len(inv.Certificates))
	for _, cert := range inv.Certificates {
		certs = append(certs, cert)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].Name < certs[j].Name })

	return filterCerts(certs, opts, time.Now()), nil
}

// load reads the inventory, returning an empty one when the file does not exist yet.
func (s *FileCertificateStore) load() (*inventory, error) {
	inv := &inventory{Version: inventoryVersion}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	default:
		if err := json.Unmarshal(data, inv); err != nil {
			return nil, fmt.Errorf("failed to parse inventory %s: %w", s.path, err)
		}
		if inv.Version != inventoryVersion {
			return nil, fmt.Errorf("unsupported inventory version %d in %s", inv.Version, s.path)
		}
	}

	// Ensure certificates map is initialized
	if inv.Certificates == nil {
		inv.Certificates = make(map[string]*CertMetadata)
	}

	return inv, nil
}

// save writes the inventory file atomically.
func (s *FileCertificateStore) save(inv *inventory) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}

	if err := atomicfile.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}

	return nil
}
