package auth

import (
	"fmt"
	"sync"

	masker "github.com/goliatone/go-masker"
)

var (
	debugMaskerOnce sync.Once
	debugMasker     *masker.Masker
	debugMaskerErr  error
)

// personal identifiers on top of the credential fields the secure
// profile already redacts
var debugMaskedFields = []string{"CCCD", "EmergencyPhone"}

func getDebugMasker() (*masker.Masker, error) {
	debugMaskerOnce.Do(func() {
		opts := make([]masker.Option, 0, len(debugMaskedFields))
		for _, field := range debugMaskedFields {
			opts = append(opts, masker.WithMaskField(field, masker.MaskTypeRedact))
		}
		debugMasker, debugMaskerErr = masker.NewSecure(opts...)
	})
	return debugMasker, debugMaskerErr
}

// redacted returns a masked copy of value for debug output. Callers must not
// fall back to value on error.
func redacted[T any](value T) (T, error) {
	var zero T
	m, err := getDebugMasker()
	if err != nil {
		return zero, err
	}

	out, err := m.Mask(value)
	if err != nil {
		return zero, err
	}

	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("masked value has type %T, want %T", out, zero)
	}
	return typed, nil
}
