package encryption

import (
	"fmt"

	"tidy-go/internal/config"
	"tidy-go/internal/safety"
)

// NewEncryptorFromConfig creates an Encryptor based on the configured type.
// An empty type disables snapshot encryption entirely, returning nil.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (safety.Encryptor, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
