package handlers

import (
	"net/http"
	"time"
)

// RefreshCookiePath scopes the refresh cookie to the rotation endpoint so the
// long-lived credential is never sent with ordinary API calls.
const RefreshCookiePath = "/api/v1/auth/refresh-token"

const RefreshCookieName = "refreshToken"

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
