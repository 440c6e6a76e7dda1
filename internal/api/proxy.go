// SPDX-License-Identifier: MPL-2.0

package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewProxy returns a handler forwarding every request to target, appending the
// original path and query to target's own path. Headers and method are preserved.
func NewProxy(target string) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: scheme and host are required", target)
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(u)
			r.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Warn("proxy error", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusBadGateway, Response{Message: "Proxy error: " + err.Error()})
		},
	}
	return logRequests(rp), nil
}
