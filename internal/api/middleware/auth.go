package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/api/respond"
	"github.com/aliskhannn/media-service/internal/model"
)

const (
	bearerPrefix = "Bearer "

	// KeyName is the context key holding the authenticated key's name.
	KeyName = "api_key_name"
	// IsMaster is the context key set when the master key was presented.
	IsMaster = "is_master_key"
)

var errUnauthorized = fmt.Errorf("invalid or missing api key: %w", model.ErrUnauthorized)

// keyLookup resolves a presented bearer token to a stored API key.
type keyLookup interface {
	GetByKey(ctx context.Context, key string) (model.ApiKey, error)
}

// Auth accepts either the master key or a stored API key as a bearer token.
// Every rejection answers with the same 401 body.
func Auth(masterKey string, keys keyLookup) func(c *ginext.Context) {
	return func(c *ginext.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix)
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			respond.Fail(c, http.StatusUnauthorized, errUnauthorized)
			return
		}

		if masterKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(masterKey)) == 1 {
			c.Set(IsMaster, true)
			c.Set(KeyName, "master")
			c.Next()
			return
		}

		key, err := keys.GetByKey(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				respond.Fail(c, http.StatusUnauthorized, errUnauthorized)
				return
			}

			zlog.Logger.Err(err).Msg("failed to look up api key")
			respond.FailWithError(c, err)
			return
		}

		c.Set(KeyName, key.Name)
		c.Next()
	}
}

// RequireMaster lets through only requests authenticated with the master key.
// It must run after Auth.
func RequireMaster() func(c *ginext.Context) {
	return func(c *ginext.Context) {
		if !c.GetBool(IsMaster) {
			respond.Fail(c, http.StatusUnauthorized, errUnauthorized)
			return
		}

		c.Next()
	}
}
