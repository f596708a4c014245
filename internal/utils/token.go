package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/yukikurage/report-hub-api/internal/constants"
)

// GenerateToken returns an opaque URL-safe token for invites and password resets
func GenerateToken() (string, error) {
	bytes := make([]byte, constants.InviteTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
