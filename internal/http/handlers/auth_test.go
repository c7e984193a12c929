package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agruezo/userhub/internal/auth"
	"github.com/agruezo/userhub/internal/http/handlers"
	"github.com/agruezo/userhub/internal/repo/memory"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T, tokens *auth.Manager) (*gin.Engine, *memory.UsersRepo) {
	t.Helper()

	store := memory.NewUsersRepo()
	svc := auth.NewService(store, tokens, nil, nil)
	h := handlers.NewAuthHandler(svc, nil)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/auth/status", h.Status)

	return r, store
}

func testTokenManager() *auth.Manager {
	return auth.NewManager("test-secret", 15*time.Minute, 24*time.Hour)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAlex(t *testing.T, r *gin.Engine) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"username": "alex",
		"email":    "alex@x.com",
		"password": "password1",
	}, nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("register: got %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}
}

func TestRegister_ReturnsPublicUser(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"username": "alex",
		"email":    "alex@x.com",
		"password": "password1",
	}, nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if got["username"] != "alex" || got["email"] != "alex@x.com" {
		t.Fatalf("unexpected body: %v", got)
	}
	if _, ok := got["password"]; ok {
		t.Fatalf("password leaked in response: %v", got)
	}
	if _, ok := got["password_hash"]; ok {
		t.Fatalf("password hash leaked in response: %v", got)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())
	registerAlex(t, r)

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"username": "alex2",
		"email":    "alex@x.com",
		"password": "password2",
	}, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Sorry. That email already exists.")) {
		t.Fatalf("missing duplicate-email message: %s", w.Body.String())
	}
}

func TestRegister_InvalidPayload(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"username": "alex",
	}, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestLogin_ReturnsTokenPair(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())
	registerAlex(t, r)

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "alex@x.com",
		"password": "password1",
	}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}

	var pair auth.TokenPair
	if err := json.Unmarshal(w.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "ghost@x.com",
		"password": "password1",
	}, nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", w.Code, http.StatusNotFound)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("User does not exist.")) {
		t.Fatalf("missing message: %s", w.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())
	registerAlex(t, r)

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "alex@x.com",
		"password": "wrong-password",
	}, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_RotatesPair(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())
	registerAlex(t, r)

	login := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "alex@x.com",
		"password": "password1",
	}, nil)

	var pair auth.TokenPair
	if err := json.Unmarshal(login.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{
		"refresh_token": pair.RefreshToken,
	}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}

	var rotated auth.TokenPair
	if err := json.Unmarshal(w.Body.Bytes(), &rotated); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", rotated)
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())

	w := doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{
		"refresh_token": "garbage",
	}, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Invalid token. Please log in again.")) {
		t.Fatalf("missing message: %s", w.Body.String())
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	expired := auth.NewManager("test-secret", 15*time.Minute, -time.Second)
	r, store := newAuthRouter(t, expired)

	u, err := store.Create(context.Background(), "alex", "alex@x.com", "x")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := expired.Encode(u.ID, auth.TokenRefresh)
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{
		"refresh_token": token,
	}, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Signature expired. Please log in again.")) {
		t.Fatalf("missing message: %s", w.Body.String())
	}
}

func TestStatus_ReturnsUser(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())
	registerAlex(t, r)

	login := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "alex@x.com",
		"password": "password1",
	}, nil)

	var pair auth.TokenPair
	if err := json.Unmarshal(login.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/auth/status", nil, map[string]string{
		"Authorization": "Bearer " + pair.AccessToken,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["username"] != "alex" || got["email"] != "alex@x.com" {
		t.Fatalf("unexpected body: %v", got)
	}
	if _, ok := got["password"]; ok {
		t.Fatalf("password leaked in response: %v", got)
	}
}

func TestStatus_MissingToken(t *testing.T) {
	r, _ := newAuthRouter(t, testTokenManager())

	w := doJSON(t, r, http.MethodGet, "/auth/status", nil, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Invalid token. Please log in again.")) {
		t.Fatalf("missing message: %s", w.Body.String())
	}
}

func TestStatus_DeletedUser(t *testing.T) {
	tokens := testTokenManager()
	r, store := newAuthRouter(t, tokens)

	u, err := store.Create(context.Background(), "alex", "alex@x.com", "x")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := tokens.Encode(u.ID, auth.TokenAccess)
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}

	if err := store.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/auth/status", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", w.Code, http.StatusNotFound)
	}
}
