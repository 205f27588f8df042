package safety

import "io"

// Encryptor encrypts snapshot content before it reaches the snapshot store.
// Encryption is asymmetric: taking a snapshot needs only the public key,
// restoring one needs the private key unlocked with a passphrase.
type Encryptor interface {
	// Setup generates and stores a new key pair, protecting the private key
	// with the passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key with the passphrase and returns a
	// context for decrypting snapshot content.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether a key pair exists.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key for decrypting snapshots.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
