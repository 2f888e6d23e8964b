// Package auth guards the API with static API keys. Keys are configured as
// SHA-256 digests and presented as bearer tokens.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"BNBChain-Agent/pkg/logger"
)

// KeyConfig describes one API key.
type KeyConfig struct {
	Name string `json:"name"`
	// SHA256 is the hex digest of the key.
	SHA256      string   `json:"sha256"`
	Permissions []string `json:"permissions"`
}

// Config lists the accepted keys. No keys disables authentication.
type Config struct {
	Keys []KeyConfig `json:"keys"`
}

type key struct {
	digest  []byte
	subject Subject
}

// Service authenticates bearer tokens against the configured keys.
type Service struct {
	keys  []key
	audit *slog.Logger
}

// NewService validates cfg and builds a service.
func NewService(cfg Config) (*Service, error) {
	s := &Service{audit: logger.Audit()}
	for i, kc := range cfg.Keys {
		name := strings.TrimSpace(kc.Name)
		if name == "" {
			return nil, fmt.Errorf("api key %d: name is required", i)
		}
		digest, err := hex.DecodeString(strings.TrimSpace(kc.SHA256))
		if err != nil || len(digest) != sha256.Size {
			return nil, fmt.Errorf("api key %s: sha256 must be %d hex bytes", name, sha256.Size)
		}
		if len(kc.Permissions) == 0 {
			return nil, fmt.Errorf("api key %s: no permissions", name)
		}
		s.keys = append(s.keys, key{digest: digest, subject: Subject{Name: name, Permissions: kc.Permissions}})
	}
	return s, nil
}

// Enabled reports whether any key is configured.
func (s *Service) Enabled() bool {
	return s != nil && len(s.keys) > 0
}

// Digest returns the hex SHA-256 digest of a raw key, as stored in KeyConfig.
func Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// AuthenticateRequest resolves the Authorization header to a subject.
func (s *Service) AuthenticateRequest(authorization string) (*Subject, error) {
	token, ok := strings.CutPrefix(strings.TrimSpace(authorization), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, ErrMissingToken
	}
	sum := sha256.Sum256([]byte(token))
	var match *key
	for i := range s.keys {
		if subtle.ConstantTimeCompare(sum[:], s.keys[i].digest) == 1 {
			match = &s.keys[i]
		}
	}
	if match == nil {
		return nil, ErrInvalidToken
	}
	subject := match.subject
	return &subject, nil
}
