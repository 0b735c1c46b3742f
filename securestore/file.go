package securestore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	fileFormatVersion = 1
	fileSaltLength    = 16
	fileKeyLength     = 32 // AES-256

	minKDFMemoryKB    uint32 = 8 * 1024
	minKDFTime        uint32 = 1
	minKDFParallelism uint8  = 1

	// Upper bounds keep a tampered file from forcing huge derivations.
	maxKDFMemoryKB    uint32 = 1024 * 1024
	maxKDFTime        uint32 = 16
	maxKDFParallelism uint8  = 16
)

// ErrFileCorrupt is returned (wrapped in ErrStoreAccess) when the sealed file cannot
// be decoded or authenticated, including when the passphrase is wrong.
var ErrFileCorrupt = errors.New("secure file corrupt or passphrase mismatch")

// KDFParams are the Argon2id parameters used to derive the file key.
type KDFParams struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
}

// DefaultKDFParams returns the parameters used when a zero KDFParams is supplied.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
	}
}

func (p KDFParams) validate() error {
	if p.Memory < minKDFMemoryKB {
		return errors.New("KDF Memory must be >= 8192 KB")
	}
	if p.Time < minKDFTime {
		return errors.New("KDF Time must be >= 1")
	}
	if p.Parallelism < minKDFParallelism {
		return errors.New("KDF Parallelism must be >= 1")
	}
	if p.Memory > maxKDFMemoryKB {
		return errors.New("KDF Memory must be <= 1048576 KB")
	}
	if p.Time > maxKDFTime {
		return errors.New("KDF Time must be <= 16")
	}
	if p.Parallelism > maxKDFParallelism {
		return errors.New("KDF Parallelism must be <= 16")
	}
	return nil
}

// FileStore keeps all values in a single AES-256-GCM sealed JSON file. The key is
// derived from a passphrase with Argon2id and a per-file random salt. Every write
// rewrites the file through a temp file and rename.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	params KDFParams
	salt   []byte
	key    []byte
	values map[string]string
}

type sealedFile struct {
	Version     int    `json:"version"`
	Salt        string `json:"salt"`
	Memory      uint32 `json:"memory"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
	Ciphertext  string `json:"ciphertext"`
}

type plainFile struct {
	Values map[string]string `json:"values"`
}

// NewFileStore opens (or prepares to create) the sealed file at path. The KDF
// parameters of an existing file take precedence over params.
func NewFileStore(path, passphrase string, params KDFParams) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	if passphrase == "" {
		return nil, errors.New("file store passphrase is required")
	}
	if params == (KDFParams{}) {
		params = DefaultKDFParams()
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	f := &FileStore{
		path:   path,
		params: params,
		values: map[string]string{},
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f.salt = make([]byte, fileSaltLength)
		if _, err := io.ReadFull(rand.Reader, f.salt); err != nil {
			return nil, err
		}
		f.key = deriveKey(passphrase, f.salt, f.params)
		return f, nil
	case err != nil:
		return nil, accessError(err)
	}

	if err := f.open(data, passphrase); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the sealed file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}
	if err := checkContext(ctx); err != nil {
		return "", false, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.values[key]
	f.values[key] = value
	if err := f.save(); err != nil {
		if existed {
			f.values[key] = previous
		} else {
			delete(f.values, key)
		}
		return accessError(err)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.values[key]
	if !existed {
		return nil
	}
	delete(f.values, key)
	if err := f.save(); err != nil {
		f.values[key] = previous
		return accessError(err)
	}
	return nil
}

func deriveKey(passphrase string, salt []byte, p KDFParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Parallelism, fileKeyLength)
}

func (f *FileStore) open(data []byte, passphrase string) error {
	var sealed sealedFile
	if err := json.Unmarshal(data, &sealed); err != nil {
		return accessError(fmt.Errorf("%w: %v", ErrFileCorrupt, err))
	}
	if sealed.Version != fileFormatVersion {
		return accessError(fmt.Errorf("%w: unsupported version %d", ErrFileCorrupt, sealed.Version))
	}
	salt, err := base64.StdEncoding.DecodeString(sealed.Salt)
	if err != nil || len(salt) != fileSaltLength {
		return accessError(fmt.Errorf("%w: bad salt", ErrFileCorrupt))
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed.Ciphertext)
	if err != nil {
		return accessError(fmt.Errorf("%w: bad ciphertext encoding", ErrFileCorrupt))
	}

	params := KDFParams{Memory: sealed.Memory, Time: sealed.Time, Parallelism: sealed.Parallelism}
	if err := params.validate(); err != nil {
		return accessError(fmt.Errorf("%w: %v", ErrFileCorrupt, err))
	}

	key := deriveKey(passphrase, salt, params)
	plaintext, err := openGCM(key, ciphertext)
	if err != nil {
		return accessError(fmt.Errorf("%w: %v", ErrFileCorrupt, err))
	}

	var plain plainFile
	if err := json.Unmarshal(plaintext, &plain); err != nil {
		return accessError(fmt.Errorf("%w: %v", ErrFileCorrupt, err))
	}

	f.params = params
	f.salt = salt
	f.key = key
	if plain.Values != nil {
		f.values = plain.Values
	}
	return nil
}

// save must be called with f.mu held.
func (f *FileStore) save() error {
	plaintext, err := json.Marshal(plainFile{Values: f.values})
	if err != nil {
		return err
	}
	ciphertext, err := sealGCM(f.key, plaintext)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sealedFile{
		Version:     fileFormatVersion,
		Salt:        base64.StdEncoding.EncodeToString(f.salt),
		Memory:      f.params.Memory,
		Time:        f.params.Time,
		Parallelism: f.params.Parallelism,
		Ciphertext:  base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// sealGCM returns nonce || ciphertext.
func sealGCM(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func openGCM(key, sealed []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
