package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/coaching"
	"github.com/jonathan/atlas-maximus/internal/config"
	"github.com/jonathan/atlas-maximus/internal/fetch"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func newTestServer(t *testing.T) (*Server, *fakeDB) {
	t.Helper()
	store := newFakeDB()
	s := newServer(store, deps{
		engine:    analytics.NewEngine(store, analytics.WithClock(testClock)),
		analyzer:  coaching.NewAnalyzer(coaching.DefaultRules(), coaching.WithClock(testClock)),
		fetchOpts: &fetch.Options{Timeout: 5 * time.Second},
		jwtConfig: &config.JWTConfig{
			Secret:          testJWTSecret,
			ExpirationHours: 1,
			Issuer:          config.DefaultJWTIssuer,
		},
		passwordConfig: &config.PasswordConfig{BcryptCost: bcrypt.MinCost},
	})
	s.now = testClock
	t.Cleanup(s.Close)
	return s, store
}

// do sends a request through the full handler chain.
func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// register creates an account through the API and returns its login response.
func register(t *testing.T, h http.Handler, name, email string) types.LoginResponse {
	t.Helper()
	w := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[types.LoginResponse](t, w)
}

// createTeam creates a team owned by the token's user.
func createTeam(t *testing.T, h http.Handler, token, name string) types.Team {
	t.Helper()
	w := do(t, h, http.MethodPost, "/teams", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[types.Team](t, w)
}
