package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned while authenticating a request.
var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrPermissionDenied = errors.New("permission denied")
)

// Permissions understood by the API.
const (
	PermissionActionsRead     = "actions:read"
	PermissionActionsDispatch = "actions:dispatch"
	PermissionHistoryRead     = "history:read"
	// PermissionAll grants every permission.
	PermissionAll = "*"
)

// Subject is the caller identified by an API key.
type Subject struct {
	Name        string
	Permissions []string

	permissionsSet map[string]struct{}
}

func (s *Subject) normalise() {
	if s == nil || s.permissionsSet != nil {
		return
	}
	s.permissionsSet = make(map[string]struct{}, len(s.Permissions))
	for _, p := range s.Permissions {
		if p = strings.TrimSpace(p); p != "" {
			s.permissionsSet[p] = struct{}{}
		}
	}
}

// Authorize reports whether the subject holds every permission.
func (s *Subject) Authorize(perms ...string) error {
	if s == nil {
		return ErrPermissionDenied
	}
	s.normalise()
	if _, ok := s.permissionsSet[PermissionAll]; ok {
		return nil
	}
	for _, p := range perms {
		if _, ok := s.permissionsSet[p]; !ok {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, p)
		}
	}
	return nil
}
