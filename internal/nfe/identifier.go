package nfe

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// NewDocumentID draws a fresh UUID and formats it as an infNFe Id.
func NewDocumentID(newUUID func() (uuid.UUID, error)) (string, error) {
	u, err := newUUID()
	if err != nil {
		return "", fmt.Errorf("failed to generate document id: %w", err)
	}
	return FormatDocumentID(u), nil
}

// FormatDocumentID renders "NFe" followed by the low 64 bits of u as a
// 44-digit zero-padded decimal. Uniqueness is only probabilistic.
func FormatDocumentID(u uuid.UUID) string {
	return fmt.Sprintf("NFe%044d", binary.BigEndian.Uint64(u[8:]))
}
