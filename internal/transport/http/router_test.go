package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "custody/pkg/platform/middleware/auth"
	"custody/pkg/requestcontext"
)

type staticValidator struct {
	claims *auth.JWTClaims
}

func (v staticValidator) ValidateToken(string) (*auth.JWTClaims, error) {
	if v.claims == nil {
		return nil, errors.New("invalid token")
	}
	return v.claims, nil
}

type whoami struct{}

func (whoami) Register(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requestcontext.Caller(r.Context()).Hex()))
	})
}

func newRouter(validator auth.JWTValidator, checks map[string]HealthCheck) http.Handler {
	return NewRouter(Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Validator: validator,
		Modules:   []Registrar{whoami{}},
		Checks:    checks,
	})
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(staticValidator{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Readiness(t *testing.T) {
	checks := map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}
	rec := httptest.NewRecorder()
	newRouter(staticValidator{}, checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["postgres"])
	assert.Equal(t, "unavailable", body["redis"])
}

func TestRouter_ModulesRequireCaller(t *testing.T) {
	caller := common.HexToAddress("0x00000000000000000000000000000000000000b1")

	t.Run("rejected without token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(staticValidator{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejected with invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		newRouter(staticValidator{}, nil).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("caller reaches handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer ok")
		rec := httptest.NewRecorder()
		newRouter(staticValidator{claims: &auth.JWTClaims{Caller: caller}}, nil).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, caller.Hex(), rec.Body.String())
	})
}
