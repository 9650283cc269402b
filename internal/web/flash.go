package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const flashCookie = "orderdash_flash"

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// SetFlash stores a flash message in a short-lived cookie.
func SetFlash(c echo.Context, kind, message string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

// PopFlash returns the pending flash message, if any, and clears the cookie.
func PopFlash(c echo.Context) *Flash {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, "|")
	if !ok {
		return &Flash{Kind: "success", Message: raw}
	}
	return &Flash{Kind: kind, Message: message}
}
