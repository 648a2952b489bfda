package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetStoreIDFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	storeID, ok := GetStoreIDFromContext(c)
	assert.False(t, ok, "token without a store id yields no scope")
	assert.Zero(t, storeID)

	c.Set("store_id", uint(7))
	storeID, ok = GetStoreIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, uint(7), storeID)
}
