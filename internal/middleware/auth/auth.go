package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ctxUserID  = "userID"
	ctxIsAdmin = "isAdmin"

	AccessTokenTTL = 15 * time.Minute
)

func SignAccessToken(userID primitive.ObjectID, isAdmin bool, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID.Hex(),
		"admin": isAdmin,
		"exp":   time.Now().Add(AccessTokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// RequireLogin validates the access-token cookie and stores the caller's
// identity on the request context.
func RequireLogin(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie("accessToken")
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusForbidden, "you are not logged in")
			}

			token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusForbidden, "invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "invalid token claims")
			}
			sub, ok := claims["sub"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "invalid subject claim")
			}
			userID, err := primitive.ObjectIDFromHex(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "invalid subject claim")
			}

			isAdmin, _ := claims["admin"].(bool)
			c.Set(ctxUserID, userID)
			c.Set(ctxIsAdmin, isAdmin)
			return next(c)
		}
	}
}

// AdminOnly must run after RequireLogin.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAdmin(c) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) (primitive.ObjectID, error) {
	id, ok := c.Get(ctxUserID).(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusForbidden, "you are not logged in")
	}
	return id, nil
}

func IsAdmin(c echo.Context) bool {
	isAdmin, _ := c.Get(ctxIsAdmin).(bool)
	return isAdmin
}

func CreateCookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
