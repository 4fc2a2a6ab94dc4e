package middleware

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tandem-server/utils/errors"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.ErrUnauthorized
}

func echoAccount(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountIDFromContext(r.Context())
	_, _ = w.Write([]byte(id))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.APIError {
	t.Helper()
	var body errors.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// =============================================================================
// AuthMiddleware
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(stubVerifier{"good": "acc-1"})(http.HandlerFunc(echoAccount))

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"}) },
			wantStatus: http.StatusOK,
			wantBody:   "acc-1",
		},
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			wantStatus: http.StatusOK,
			wantBody:   "acc-1",
		},
		{
			name: "stale cookie falls back to bearer header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "expired"})
				r.Header.Set("Authorization", "Bearer good")
			},
			wantStatus: http.StatusOK,
			wantBody:   "acc-1",
		},
		{
			name: "stale cookie without header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "expired"})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing token",
			prepare:    func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-bearer scheme",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Basic good") },
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Equal(t, errors.ErrUnauthorized.Code, decodeError(t, rec).Code)
			}
		})
	}
}

func TestAccountIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := AccountIDFromContext(req.Context())
	assert.False(t, ok)

	_, ok = AccountIDFromContext(WithAccountID(req.Context(), ""))
	assert.False(t, ok)
}

// =============================================================================
// CORSMiddleware
// =============================================================================

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	handler := CORSMiddleware([]string{"http://localhost:3000"})(next)

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/profile", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		assert.True(t, OriginAllowed([]string{"*"}, "http://anything"))
		assert.False(t, OriginAllowed(nil, "http://anything"))
	})
}

// =============================================================================
// Errors
// =============================================================================

func TestErrorMiddleware_RecoversPanic(t *testing.T) {
	handler := ErrorMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errors.ErrInternal.Code, decodeError(t, rec).Code)
}

func TestWriteError(t *testing.T) {
	t.Run("api error keeps its status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.WithMessage(errors.ErrAlreadyInRelation, "Already following this user"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "ALREADY_IN_RELATION", body.Code)
		assert.Equal(t, "Already following this user", body.Message)
	})

	t.Run("plain error hides its text", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, stderrors.New("mongo: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

// =============================================================================
// LoggingMiddleware
// =============================================================================

func TestLoggingMiddleware_RecordsRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware(zap.NewNop()))
	var seen string
	r.HandleFunc("/api/members/{id}", func(w http.ResponseWriter, req *http.Request) {
		seen = routeTemplate(req)
		w.WriteHeader(http.StatusAccepted)
	})
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members/42", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/api/members/{id}", seen)
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, err := rec.Write([]byte("hi"))
	require.NoError(t, err)
	rec.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, rec.status)
	assert.Equal(t, 2, rec.bytes)
}
