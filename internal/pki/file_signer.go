package pki

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/certgen/internal/atomicfile"
)

const (
	// KeyExt is the file extension of private keys.
	KeyExt = ".key"
	// CertExt is the file extension of certificates.
	CertExt = ".crt"
)

// Paths returns the key and certificate file paths for a logical name in dir.
func Paths(dir, name string) (keyPath, certPath string) {
	base := filepath.Join(dir, name)
	return base + KeyExt, base + CertExt
}

// LoadCertificate reads {base}.crt and {base}.key and pairs them.
// Either file missing yields ErrNotFound; undecodable or mismatched files yield ErrMalformed.
func LoadCertificate(km *KeyManager, base string) (*Certificate, error) {
	certPath := base + CertExt
	keyPath := base + KeyExt

	log.Debug().Str("path", certPath).Msg("reading certificate file")

	certData, err := os.ReadFile(certPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("certificate file %s: %w", certPath, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to read certificate file %s: %v", ErrIO, certPath, err)
	}

	cert, err := DecodeCertificatePEM(certData)
	if err != nil {
		return nil, fmt.Errorf("certificate file %s: %w", certPath, err)
	}

	key, err := km.Load(keyPath)
	if err != nil {
		return nil, err
	}

	if err := verifyCertKeyPair(&Certificate{cert: cert, key: key}); err != nil {
		return nil, fmt.Errorf("%w: %s and %s: %w", ErrMalformed, certPath, keyPath, err)
	}

	log.Info().
		Str("path", certPath).
		Str("subject", cert.Subject.String()).
		Msg("certificate file read OK")

	return &Certificate{cert: cert, key: key}, nil
}

// Save writes {base}.key and then {base}.crt. The key is only written when it did not
// come from that file, in which case the user is asked for a passphrase to protect it.
func (c *Certificate) Save(km *KeyManager, base string) error {
	certPath := base + CertExt
	keyPath := base + KeyExt

	if c.key.Source() != keyPath {
		passphrase, err := km.AskNewPassphrase(keyPath)
		if err != nil {
			return err
		}
		if err := km.Save(c.key, keyPath, passphrase); err != nil {
			return err
		}
	}

	log.Info().Str("path", certPath).Msg("writing certificate file")

	if err := atomicfile.WriteFile(certPath, c.EncodePEM(), 0600); err != nil {
		return fmt.Errorf("%w: failed to write certificate file %s: %v", ErrIO, certPath, err)
	}

	return nil
}

// verifyCertKeyPair checks that a certificate's public key matches its private key
func verifyCertKeyPair(c *Certificate) error {
	if !c.key.Public().Equal(c.cert.PublicKey) {
		return ErrKeyMismatch
	}
	return nil
}
