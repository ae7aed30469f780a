package downloader

import (
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
)

// Client performs GETs against the upstream endpoints.
type Client struct {
	HttpClient *http.Client
	// Timeout bounds each request, body included.
	Timeout time.Duration
}

// Pool caps the number of in-flight asset downloads for the whole process.
// Each install borrows permits from it.
type Pool struct {
	Width int
	sem   *semaphore.Weighted
}
