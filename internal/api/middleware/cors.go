package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"
)

// CORSMiddleware allows browser clients from any origin to call the API
// with a bearer token.
func CORSMiddleware() ginext.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Authorization", "Content-Type"},
		MaxAge:          24 * time.Hour,
	})
}
