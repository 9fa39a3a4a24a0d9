package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fastprodman/changuard/internal/services/verdict"
)

// NewServer creates and returns a configured *http.Server for the verdict API.
func NewServer(port uint16, maxBodyBytes int64, svc *verdict.VerdictService) *http.Server {
	mux := NewRouter(svc, maxBodyBytes)

	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
