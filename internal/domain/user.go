package domain

import (
	"strings"

	"github.com/pointdeck/pointdeck/internal/infrastructure/validate"
)

// User is a participant in a room. Estimate is nil until the user
// votes in the current round.
type User struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Estimate *string `json:"estimate"`
}

var validateName = validate.Field("name", validate.Compose(
	validate.Required(),
	validate.MaxLength(64),
))

var validateEstimate = validate.Field("estimate", validate.Compose(
	validate.Required(),
	validate.MaxLength(16),
))

// NormalizeName validates and trims a display name supplied by a client.
func NormalizeName(rawName string) (string, error) {
	name := strings.TrimSpace(rawName)
	if err := validateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// NormalizeEstimate validates an estimate token. The accepted
// vocabulary (1, 2, 3, 5, 8, ..., "?") is a client concern; the server
// only requires a non-empty bounded token.
func NormalizeEstimate(raw string) (string, error) {
	estimate := strings.TrimSpace(raw)
	if err := validateEstimate(estimate); err != nil {
		return "", err
	}
	return estimate, nil
}
