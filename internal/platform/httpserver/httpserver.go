// Package httpserver constructs the API's http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the router in a server with timeouts sized for multipart
// document uploads over slow links.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}
