package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const approvalTokenBytes = 32

// GenerateApprovalToken returns an unguessable hex token for a batch approval link.
func GenerateApprovalToken() (string, error) {
	b := make([]byte, approvalTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate approval token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
