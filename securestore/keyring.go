package securestore

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringStore stores values in the operating system keychain. The keychain
// service is fixed per store; the storage key becomes the account name.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a store scoped to the given keychain service name.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

// Service returns the keychain service name.
func (k *KeyringStore) Service() string {
	return k.service
}

func (k *KeyringStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}
	if err := checkContext(ctx); err != nil {
		return "", false, err
	}
	value, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, accessError(err)
	}
	return value, true, nil
}

func (k *KeyringStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := keyring.Set(k.service, key, value); err != nil {
		return accessError(err)
	}
	return nil
}

func (k *KeyringStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	err := keyring.Delete(k.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return accessError(err)
	}
	return nil
}
