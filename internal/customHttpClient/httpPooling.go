package customHttpClient

import (
	"net/http"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
)

var pooledTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var pooledClient = &http.Client{Transport: pooledTransport}

// Pooled returns the shared connection-reusing client handed to the OpenAI
// SDK so embedding and completion calls do not re-dial per request.
func Pooled() *http.Client {
	return pooledClient
}
