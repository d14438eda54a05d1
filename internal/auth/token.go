package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vovakirdan/gridroom-server/internal/core"
)

var (
	// ErrMissingToken is returned when the handshake carries no payload.
	ErrMissingToken = errors.New("no user data provided")
	// ErrMalformedToken is returned when the payload is not a JSON object.
	ErrMalformedToken = errors.New("malformed user data")
	// ErrMissingField is returned when name or userId is absent or not a string.
	ErrMissingField = errors.New("user data requires string name and userId")
)

// Authenticate parses the self-asserted identity carried by a connection
// handshake. values holds every occurrence of the token parameter; the
// first one wins, as does the first element of a JSON array payload.
// Every failure wraps core.ErrAuth.
func Authenticate(values []string) (core.Identity, error) {
	if len(values) == 0 {
		return core.Identity{}, authError(ErrMissingToken)
	}
	return ParseToken(values[0])
}

// ParseToken decodes a single raw token value into an identity.
func ParseToken(raw string) (core.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.Identity{}, authError(ErrMissingToken)
	}
	if !gjson.Valid(raw) {
		return core.Identity{}, authError(ErrMalformedToken)
	}

	parsed := gjson.Parse(raw)
	if parsed.IsArray() {
		first := parsed.Get("0")
		if first.Type != gjson.String {
			return core.Identity{}, authError(ErrMalformedToken)
		}
		return ParseToken(first.String())
	}
	if parsed.Type == gjson.String {
		// A JSON string wrapping the object, as some clients double-encode.
		return ParseToken(parsed.String())
	}
	if !parsed.IsObject() {
		return core.Identity{}, authError(ErrMalformedToken)
	}

	name := parsed.Get("name")
	userID := parsed.Get("userId")
	if name.Type != gjson.String || userID.Type != gjson.String {
		return core.Identity{}, authError(ErrMissingField)
	}
	if userID.String() == "" {
		return core.Identity{}, authError(ErrMissingField)
	}

	return core.Identity{PlayerID: userID.String(), Name: name.String()}, nil
}

func authError(err error) error {
	return fmt.Errorf("%w: %w", core.ErrAuth, err)
}
