package pki

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/certgen/internal/atomicfile"
	"github.com/wolfeidau/certgen/internal/prompt"
	"github.com/youmark/pkcs8"
)

// KeyBits is the RSA modulus size of every generated key.
const KeyBits = 2048

const (
	pemTypePrivateKey          = "PRIVATE KEY"
	pemTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	pemTypeRSAPrivateKey       = "RSA PRIVATE KEY"
)

// KeyPair is an RSA private key together with the file it was read from or written to.
type KeyPair struct {
	key    *rsa.PrivateKey
	source string
}

// GenerateKey creates a fresh 2048-bit RSA key pair.
func GenerateKey() (*KeyPair, error) {
	log.Info().Int("bits", KeyBits).Msg("generating a new RSA key")

	key, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate key: %v", ErrCryptoFailure, err)
	}

	return &KeyPair{key: key}, nil
}

// Public returns the RSA public key.
func (k *KeyPair) Public() *rsa.PublicKey {
	return &k.key.PublicKey
}

// Signer exposes the private key for signing.
func (k *KeyPair) Signer() crypto.Signer {
	return k.key
}

// Source is the path the key was loaded from or last saved to, empty for a key only held in memory.
func (k *KeyPair) Source() string {
	return k.source
}

// IsEncryptedKeyPEM reports whether data holds a passphrase protected PKCS#8 key.
func IsEncryptedKeyPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil && block.Type == pemTypeEncryptedPrivateKey
}

// EncodeKeyPEM serializes the key as PKCS#8 PEM. A non-empty passphrase encrypts
// the key with PBES2 using AES-256-CBC.
func EncodeKeyPEM(k *KeyPair, passphrase string) ([]byte, error) {
	var password []byte
	blockType := pemTypePrivateKey
	if passphrase != "" {
		password = []byte(passphrase)
		blockType = pemTypeEncryptedPrivateKey
	}

	der, err := pkcs8.MarshalPrivateKey(k.key, password, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal private key: %v", ErrCryptoFailure, err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  blockType,
		Bytes: der,
	}), nil
}

// DecodeKeyPEM parses a PEM-encoded RSA private key. The passphrase is only
// used for encrypted PKCS#8 keys.
func DecodeKeyPEM(data []byte, passphrase string) (*KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode key PEM", ErrMalformed)
	}

	var (
		key *rsa.PrivateKey
		err error
	)

	switch block.Type {
	case pemTypeEncryptedPrivateKey:
		if passphrase == "" {
			return nil, fmt.Errorf("%w: key is encrypted and no passphrase was given", ErrMalformed)
		}
		key, err = pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(passphrase))
	case pemTypePrivateKey:
		key, err = pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes)
	case pemTypeRSAPrivateKey:
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrMalformed, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse private key: %v", ErrMalformed, err)
	}

	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid RSA key: %v", ErrMalformed, err)
	}

	return &KeyPair{key: key}, nil
}

// KeyManager loads, generates and persists key pairs, asking the prompter
// for confirmations and passphrases.
type KeyManager struct {
	prompter prompt.Prompter
}

// NewKeyManager creates a KeyManager backed by the given prompter.
func NewKeyManager(p prompt.Prompter) *KeyManager {
	return &KeyManager{prompter: p}
}

// Load reads a PEM-encoded private key from path, asking for a passphrase when the key is encrypted.
func (m *KeyManager) Load(path string) (*KeyPair, error) {
	log.Debug().Str("path", path).Msg("reading key file")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("key file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to read key file %s: %v", ErrIO, path, err)
	}

	var passphrase string
	if IsEncryptedKeyPEM(data) {
		passphrase, err = m.prompter.AskSecret(fmt.Sprintf("Passphrase for %s: ", path))
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase for %s: %w", path, err)
		}
	}

	key, err := DecodeKeyPEM(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	key.source = path

	log.Info().Str("path", path).Msg("key file read OK")

	return key, nil
}

// Save writes the key to path as PKCS#8 PEM with 0600 permissions, encrypted when passphrase is non-empty.
func (m *KeyManager) Save(k *KeyPair, path, passphrase string) error {
	log.Info().Str("path", path).Bool("encrypted", passphrase != "").Msg("writing key file")

	data, err := EncodeKeyPEM(k, passphrase)
	if err != nil {
		return err
	}

	if err := atomicfile.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: failed to write key file %s: %v", ErrIO, path, err)
	}
	k.source = path

	return nil
}

// LoadOrGenerate loads the key at path, or generates a new one after the user confirms.
// A key that exists but cannot be decoded is returned as an error and never replaced.
// A generated key is not written here; it is persisted with its certificate.
func (m *KeyManager) LoadOrGenerate(path string) (*KeyPair, error) {
	key, err := m.Load(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	log.Info().Str("path", path).Msg("key does not exist")

	ok, err := m.prompter.Confirm(fmt.Sprintf("Generate key %s?", path))
	if err != nil {
		return nil, fmt.Errorf("failed to confirm key generation: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("generate key %s: %w", path, ErrUserCanceled)
	}

	return GenerateKey()
}

// AskNewPassphrase asks twice for the passphrase protecting a new key file.
// An empty answer means the key is stored unencrypted; mismatched entries are asked again.
func (m *KeyManager) AskNewPassphrase(path string) (string, error) {
	name := filepath.Base(path)
	for {
		passphrase, err := m.prompter.AskSecret(fmt.Sprintf("Passphrase for %s (empty for none): ", name))
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		if passphrase == "" {
			return "", nil
		}

		confirm, err := m.prompter.AskSecret("Confirm passphrase: ")
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		if passphrase == confirm {
			return passphrase, nil
		}

		log.Warn().Str("path", path).Msg("passphrases do not match, try again")
	}
}
