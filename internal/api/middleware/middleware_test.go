package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/media-service/internal/model"
)

type keyMap map[string]string

func (k keyMap) GetByKey(_ context.Context, key string) (model.ApiKey, error) {
	name, ok := k[key]
	if !ok {
		return model.ApiKey{}, fmt.Errorf("get key: %w", model.ErrNotFound)
	}

	return model.ApiKey{Name: name, Key: key}, nil
}

func newEngine() *ginext.Engine {
	r := ginext.New()
	r.Use(CORSMiddleware())

	api := r.Group("/", Auth("master", keyMap{"k1": "client"}))
	api.GET("/whoami", func(c *ginext.Context) {
		c.String(http.StatusOK, c.GetString(KeyName))
	})
	api.GET("/admin", RequireMaster(), func(c *ginext.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestAuth(t *testing.T) {
	r := newEngine()

	w := do(r, http.MethodGet, "/whoami", "k1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client", w.Body.String())

	w = do(r, http.MethodGet, "/whoami", "master")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "master", w.Body.String())

	missing := do(r, http.MethodGet, "/whoami", "")
	wrong := do(r, http.MethodGet, "/whoami", "nope")
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, missing.Body.String(), wrong.Body.String())
}

func TestRequireMaster(t *testing.T) {
	r := newEngine()

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "k1").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin", "master").Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	req.Header.Set("Origin", "https://app.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSSimpleRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Origin", "https://app.example.org")
	req.Header.Set("Authorization", "Bearer k1")

	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
