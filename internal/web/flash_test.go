package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/orderdash/orderdash/internal/web"
)

func newContext(t *testing.T, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestFlashRoundTrip(t *testing.T) {
	c, rec := newContext(t)
	web.SetFlash(c, "success", "Order ORD-1 created successfully!")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	// Replay the cookie on the follow-up request, as a browser would.
	c2, rec2 := newContext(t, cookies[0])
	flash := web.PopFlash(c2)
	require.NotNil(t, flash)
	require.Equal(t, "success", flash.Kind)
	require.Equal(t, "Order ORD-1 created successfully!", flash.Message)

	// The pop clears the cookie.
	cleared := rec2.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)
}

func TestFlashSurvivesSpecialCharacters(t *testing.T) {
	c, rec := newContext(t)
	web.SetFlash(c, "error", `Order "A&B|C" deleted successfully!`)

	c2, _ := newContext(t, rec.Result().Cookies()[0])
	flash := web.PopFlash(c2)
	require.NotNil(t, flash)
	require.Equal(t, "error", flash.Kind)
	require.Equal(t, `Order "A&B|C" deleted successfully!`, flash.Message)
}

func TestPopFlashWithoutCookie(t *testing.T) {
	c, _ := newContext(t)
	require.Nil(t, web.PopFlash(c))
}
