package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerUser(t *testing.T, srv *Server, email, name, password string) authResponse {
	t.Helper()
	body := jsonBody(t, map[string]string{"email": email, "name": name, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	srv.handleAuthRegister(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleAuthRegister_CreatesUserAndIssuesToken(t *testing.T) {
	srv := newTestServerWithStorage()

	resp := registerUser(t, srv, "Alice@Example.com", "Alice", "correct horse battery")

	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.User.UserID)
	assert.Equal(t, "alice@example.com", resp.User.Email, "email must be normalized")

	_, claims, err := validateJWT(resp.Token, []byte(srv.app.Config.Auth.JWTSecret))
	require.NoError(t, err)
	assert.Equal(t, resp.User.UserID, claims["sub"])
	assert.Equal(t, "folio-server", claims["iss"])
}

func TestHandleAuthRegister_NoHashInResponse(t *testing.T) {
	srv := newTestServerWithStorage()
	body := jsonBody(t, map[string]string{"email": "a@b.com", "name": "A", "password": "long enough pw"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	srv.handleAuthRegister(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$", "bcrypt hash must not appear in response")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandleAuthRegister_DuplicateEmail(t *testing.T) {
	srv := newTestServerWithStorage()
	registerUser(t, srv, "a@b.com", "A", "long enough pw")

	body := jsonBody(t, map[string]string{"email": "a@b.com", "name": "A2", "password": "another password"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	srv.handleAuthRegister(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleAuthRegister_RejectsWeakInput(t *testing.T) {
	srv := newTestServerWithStorage()

	cases := []map[string]string{
		{"email": "not-an-email", "name": "A", "password": "long enough pw"},
		{"email": "", "name": "A", "password": "long enough pw"},
		{"email": "a@b.com", "name": "A", "password": "short"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, c))
		rec := httptest.NewRecorder()
		srv.handleAuthRegister(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "case %v", c)
	}
}

func TestHandleAuthLogin_RoundTrip(t *testing.T) {
	srv := newTestServerWithStorage()
	registerUser(t, srv, "a@b.com", "A", "correct horse battery")

	body := jsonBody(t, map[string]string{"email": "a@b.com", "password": "correct horse battery"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	srv.handleAuthLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	srv := newTestServerWithStorage()
	registerUser(t, srv, "a@b.com", "A", "correct horse battery")

	body := jsonBody(t, map[string]string{"email": "a@b.com", "password": "wrong password here"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	srv.handleAuthLogin(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleAuthLogin_UnknownEmailSameResponse(t *testing.T) {
	srv := newTestServerWithStorage()

	body := jsonBody(t, map[string]string{"email": "nobody@b.com", "password": "whatever password"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	srv.handleAuthLogin(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
}

func TestBearerMiddleware_PopulatesSession(t *testing.T) {
	srv := newTestServerWithStorage()
	resp := registerUser(t, srv, "a@b.com", "A", "correct horse battery")

	mux := http.NewServeMux()
	srv.registerRoutes(mux)
	handler := applyMiddleware(mux, srv.logger, srv.app.Config)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user userResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, resp.User.UserID, user.UserID)
}

func TestBearerMiddleware_RejectsInvalidToken(t *testing.T) {
	srv := newTestServerWithStorage()

	mux := http.NewServeMux()
	srv.registerRoutes(mux)
	handler := applyMiddleware(mux, srv.logger, srv.app.Config)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleAuthValidate_NoSession(t *testing.T) {
	srv := newTestServerWithStorage()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	rec := httptest.NewRecorder()
	srv.handleAuthValidate(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
