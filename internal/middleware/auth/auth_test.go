package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testSecret = []byte("test-secret")

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, cookie *http.Cookie, next echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return mw(next)(e.NewContext(req, rec))
}

func TestRequireLoginRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()
	token, err := SignAccessToken(userID, true, testSecret)
	require.NoError(t, err)

	var gotID primitive.ObjectID
	var gotAdmin bool
	err = runMiddleware(t, RequireLogin(testSecret), &http.Cookie{Name: "accessToken", Value: token}, func(c echo.Context) error {
		gotID, err = UserID(c)
		require.NoError(t, err)
		gotAdmin = IsAdmin(c)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, userID, gotID)
	require.True(t, gotAdmin)
}

func TestRequireLoginRejections(t *testing.T) {
	userID := primitive.NewObjectID()
	token, err := SignAccessToken(userID, false, testSecret)
	require.NoError(t, err)

	notCalled := func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	}

	cases := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"empty cookie", &http.Cookie{Name: "accessToken", Value: ""}},
		{"garbage token", &http.Cookie{Name: "accessToken", Value: "not.a.jwt"}},
		{"valid token wrong secret", &http.Cookie{Name: "accessToken", Value: token}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			secret := testSecret
			if tc.name == "valid token wrong secret" {
				secret = []byte("other-secret")
			}
			err := runMiddleware(t, RequireLogin(secret), tc.cookie, notCalled)
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			require.Equal(t, http.StatusForbidden, httpErr.Code)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("userID", primitive.NewObjectID())
	c.Set("isAdmin", false)

	err := AdminOnly()(func(c echo.Context) error { return nil })(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Code)

	c.Set("isAdmin", true)
	require.NoError(t, AdminOnly()(func(c echo.Context) error { return nil })(c))
}

func TestCreateCookie(t *testing.T) {
	expires := time.Now().Add(AccessTokenTTL)
	cookie := CreateCookie("accessToken", "value", "/", expires)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, "/", cookie.Path)
}
