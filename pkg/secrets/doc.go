// Package secrets seals small values (credentials, refresh tokens) for storage
// at rest.
//
// A Sealer derives a 256-bit key from a master key and a purpose label with
// HKDF-SHA-256 and encrypts with AES-256-GCM. The random nonce is prepended to
// the ciphertext so sealed values are self-contained.
//
//	key, _ := secrets.ParseKey(os.Getenv("CREDENTIAL_ENCRYPTION_KEY"))
//	sealer, err := secrets.NewSealer(key, "authsession/credential/v1")
//	if err != nil {
//	    // handle error
//	}
//	blob, _ := sealer.SealString(token)
//	token, err = sealer.OpenString(blob)
//
// Errors wrap the package sentinels (ErrInvalidKey, ErrDecryptionFailed, ...),
// so callers match them with errors.Is.
package secrets
