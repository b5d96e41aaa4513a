package credentials

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// ServiceName is the keyring service the token is stored under.
const ServiceName = "netlify-ddns"

const keyringUser = "netlify"

// KeyringStore keeps the token in the OS keychain.
type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetToken(token string) error {
	return keyring.Set(k.serviceName, keyringUser, token)
}

func (k *KeyringStore) GetToken() (string, error) {
	token, err := keyring.Get(k.serviceName, keyringUser)
	if err == nil {
		return token, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	return "", err
}

func (k *KeyringStore) DeleteToken() error {
	err := keyring.Delete(k.serviceName, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}

// Lookup returns the token from the key file at keyFile, falling back to the keyring
// when the file does not exist. An empty keyFile skips straight to the keyring.
func Lookup(keyFile string, store *KeyringStore) (string, error) {
	if keyFile != "" {
		token, err := ReadKeyFile(keyFile)
		if err == nil || !errors.Is(err, ErrTokenNotFound) {
			return token, err
		}
	}
	if store == nil {
		return "", ErrTokenNotFound
	}
	return store.GetToken()
}
