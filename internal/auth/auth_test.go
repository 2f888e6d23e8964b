package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{Keys: []KeyConfig{
		{Name: "ops", SHA256: Digest("ops-key"), Permissions: []string{PermissionAll}},
		{Name: "viewer", SHA256: Digest("view-key"), Permissions: []string{PermissionActionsRead, PermissionHistoryRead}},
	}})
	require.NoError(t, err)
	return svc
}

func TestRequireChecksPermissions(t *testing.T) {
	svc := newService(t)
	var seen *Subject
	handler := svc.Require(PermissionActionsDispatch)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Bearer view-key", http.StatusForbidden},
		{"Bearer ops-key", http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/TRANSFER", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.header)
	}
	require.NotNil(t, seen)
	assert.Equal(t, "ops", seen.Name)
}

func TestRequireWithoutKeysIsOpen(t *testing.T) {
	svc, err := NewService(Config{})
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	handler := svc.Require(PermissionActionsDispatch)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewServiceRejectsBadKeys(t *testing.T) {
	_, err := NewService(Config{Keys: []KeyConfig{{Name: "x", SHA256: "abc", Permissions: []string{"*"}}}})
	assert.Error(t, err)
	_, err = NewService(Config{Keys: []KeyConfig{{SHA256: Digest("k"), Permissions: []string{"*"}}}})
	assert.Error(t, err)
	_, err = NewService(Config{Keys: []KeyConfig{{Name: "x", SHA256: Digest("k")}}})
	assert.Error(t, err)
}
