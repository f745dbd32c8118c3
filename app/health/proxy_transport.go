package health

import (
	"net/http"
	"net/url"
)

// proxyFunc returns an http.Transport Proxy func pinned to a single proxy
// URL, independent of the process's environment proxy settings.
func proxyFunc(proxyURL string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}

	return func(*http.Request) (*url.URL, error) {
		return u, nil
	}, nil
}
