package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/swassyman/heart/internal/contracts"
)

// IssueToken encodes user as base64 JSON with an empty token field. The
// token is an identity envelope, not a credential: it carries no signature.
func IssueToken(user contracts.User) (string, error) {
	user.Token = ""
	body, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal user: %w", err)
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

// DecodeToken reverses IssueToken and validates the embedded identity.
func DecodeToken(token string) (contracts.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return contracts.User{}, &contracts.ValidationError{Entity: "session", Field: "token", Reason: "empty"}
	}
	body, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return contracts.User{}, &contracts.ValidationError{Entity: "session", Field: "token", Reason: "not base64: " + err.Error()}
	}
	var user contracts.User
	if err := json.Unmarshal(body, &user); err != nil {
		return contracts.User{}, &contracts.ValidationError{Entity: "session", Field: "token", Reason: "not a user document: " + err.Error()}
	}
	if err := user.Validate(); err != nil {
		return contracts.User{}, err
	}
	user.Token = token
	return user, nil
}
