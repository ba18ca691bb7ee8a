package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the timeouts this service runs with. Upload
// endpoints accept PDFs up to the document limit, so write and read timeouts
// are generous compared to header reads.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
