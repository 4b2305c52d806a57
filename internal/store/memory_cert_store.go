package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ CertificateStore = (*MemoryCertificateStore)(nil)

// MemoryCertificateStore is an in-memory implementation of CertificateStore for dry runs and testing
type MemoryCertificateStore struct {
	mu                 sync.RWMutex
	certs              map[string]*CertMetadata // indexed by name
	certsByFingerprint map[string]*CertMetadata // indexed by fingerprint
}

// NewMemoryCertificateStore creates a new in-memory certificate store
func NewMemoryCertificateStore() *MemoryCertificateStore {
	return &MemoryCertificateStore{
		certs:              make(map[string]*CertMetadata),
		certsByFingerprint: make(map[string]*CertMetadata),
	}
}

// Get retrieves certificate metadata by name
func (s *MemoryCertificateStore) Get(ctx context.Context, name string) (*CertMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, exists := s.certs[name]
	if !exists {
		return nil, ErrCertNotFound
	}

	// Return a copy to avoid external modifications
	return copyCert(cert), nil
}

// GetByFingerprint retrieves certificate by fingerprint
func (s *MemoryCertificateStore) GetByFingerprint(ctx context.Context, fingerprint string) (*CertMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, exists := s.certsByFingerprint[fingerprint]
	if !exists {
		return nil, ErrCertNotFound
	}

	return copyCert(cert), nil
}

// Register stores certificate metadata
func (s *MemoryCertificateStore) Register(ctx context.Context, cert *CertMetadata) error {
	if cert.Name == "" {
		return ErrInvalidCert
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, exists := s.certs[cert.Name]; exists {
		delete(s.certsByFingerprint, previous.Fingerprint)
	}

	c := copyCert(cert)
	s.certs[cert.Name] = c
	s.certsByFingerprint[cert.Fingerprint] = c

	return nil
}

// List returns registered certificates sorted by name
func (s *MemoryCertificateStore) List(ctx context.Context, opts ListCertificatesOptions) ([]*CertMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certs := make([]*CertMetadata, 0, len(s.certs))
	for _, cert := range s.certs {
		certs = append(certs, cert)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].Name < certs[j].Name })

	return filterCerts(certs, opts, time.Now()), nil
}
