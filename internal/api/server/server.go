package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"
)

// New returns an HTTP server for router listening on addr. A bare port such
// as "8080" listens on every interface.
func New(addr string, router *ginext.Engine) *http.Server {
	if addr != "" && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
