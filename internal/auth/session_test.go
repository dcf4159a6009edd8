package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/checkout-service/internal/auth"
)

const sessionSecret = "test_session_secret"

func protectedHandler(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUserID, userID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_ValidToken(t *testing.T) {
	token, err := auth.NewToken(sessionSecret, "user1", time.Minute)
	require.NoError(t, err)

	handler := auth.Middleware(sessionSecret)(protectedHandler(t, "user1"))

	req := httptest.NewRequest(http.MethodPost, "/checkout/verify-payment", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RejectsInvalidSessions(t *testing.T) {
	validToken, err := auth.NewToken(sessionSecret, "user1", time.Minute)
	require.NoError(t, err)

	foreignToken, err := auth.NewToken("another_secret", "user1", time.Minute)
	require.NoError(t, err)

	expiredToken, err := auth.NewToken(sessionSecret, "user1", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "missing_header", authHeader: ""},
		{name: "not_bearer", authHeader: "Basic " + validToken},
		{name: "garbage_token", authHeader: "Bearer not.a.token"},
		{name: "wrong_secret", authHeader: "Bearer " + foreignToken},
		{name: "expired", authHeader: "Bearer " + expiredToken},
		{name: "tampered", authHeader: "Bearer " + validToken[:len(validToken)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			handler := auth.Middleware(sessionSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			}))

			req := httptest.NewRequest(http.MethodPost, "/checkout/verify-payment", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			assert.False(t, nextCalled)
		})
	}
}

func TestUserID_AbsentFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := auth.UserID(req.Context())
	assert.False(t, ok)
}
