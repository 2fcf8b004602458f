package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/goledger/base/ctx"
)

func TestMiddlewareChain(t *testing.T) {
	m := InitMiddleware()
	e := echo.New()
	e.Use(m.CORS, m.AddContext(), m.ResponseLogger())

	var got ctx.Ctx
	e.GET("/ping", func(c echo.Context) error {
		got = c.Get("ctx").(ctx.Ctx)
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "req-1", got.Value("requestID"))
}

func TestResponseLoggerHandlesErrors(t *testing.T) {
	m := InitMiddleware()
	e := echo.New()
	e.Use(m.ResponseLogger())
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}
