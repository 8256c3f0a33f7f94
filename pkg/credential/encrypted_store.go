package credential

import (
	"context"
	"errors"

	"github.com/dmitrymomot/authsession/pkg/secrets"
)

// EncryptedStore seals the credential before handing it to the wrapped Store.
type EncryptedStore struct {
	inner  Store
	sealer *secrets.Sealer
}

// NewEncryptedStore wraps inner so only sealed values reach it.
func NewEncryptedStore(inner Store, sealer *secrets.Sealer) *EncryptedStore {
	return &EncryptedStore{inner: inner, sealer: sealer}
}

func (e *EncryptedStore) Save(ctx context.Context, credential string) error {
	if credential == "" {
		return ErrEmptyCredential
	}
	sealed, err := e.sealer.SealString(credential)
	if err != nil {
		return err
	}
	return e.inner.Save(ctx, sealed)
}

// Load returns ErrCorrupted when the stored value cannot be opened, e.g. after
// the encryption key was rotated.
func (e *EncryptedStore) Load(ctx context.Context) (string, error) {
	sealed, err := e.inner.Load(ctx)
	if err != nil {
		return "", err
	}
	credential, err := e.sealer.OpenString(sealed)
	if err != nil {
		return "", errors.Join(ErrCorrupted, err)
	}
	return credential, nil
}

func (e *EncryptedStore) Clear(ctx context.Context) error {
	return e.inner.Clear(ctx)
}
