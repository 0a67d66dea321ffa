package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sda-shop/shop-backend/internal/hash"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/store/memory"
)

func seedUser(t *testing.T, mem *memory.Store, email, password string, banned bool) *models.User {
	t.Helper()
	hashed, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  hashed,
		IsBanned:  banned,
	}
	_, err = mem.Users.Insert(context.Background(), u)
	require.NoError(t, err)
	return u
}

func TestLogin(t *testing.T) {
	mem := memory.New()
	seedUser(t, mem, "user@example.com", "secret123", false)
	h := &AuthHandler{Users: mem.Users, JWTSecret: []byte("test-secret")}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "secret123",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "accessToken")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "accessToken", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestLoginWrongPassword(t *testing.T) {
	mem := memory.New()
	seedUser(t, mem, "user@example.com", "secret123", false)
	h := &AuthHandler{Users: mem.Users, JWTSecret: []byte("test-secret")}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "wrong",
	})
	err := h.Login(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)

	// unknown email gets the same answer
	_, c = doJSONRequest(t, e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	err = h.Login(c)
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestLoginBannedUser(t *testing.T) {
	mem := memory.New()
	seedUser(t, mem, "banned@example.com", "secret123", true)
	h := &AuthHandler{Users: mem.Users, JWTSecret: []byte("test-secret")}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "banned@example.com",
		"password": "secret123",
	})
	err := h.Login(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestLogout(t *testing.T) {
	h := &AuthHandler{}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/auth/logout", nil)
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "accessToken", cookies[0].Name)
	require.Empty(t, cookies[0].Value)
}
