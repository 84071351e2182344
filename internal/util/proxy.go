// Package util holds small shared helpers: outbound proxy selection and
// robots.txt compliance checks used by every HTTP surface.
package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc builds the Proxy function for an http.Transport. With no
// explicit proxy configured it defers to the standard environment
// variables. noProxy is a comma-separated list of host suffixes that
// bypass the proxy.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	var bypass []string
	for _, part := range strings.Split(noProxy, ",") {
		if part = strings.TrimSpace(part); part != "" {
			bypass = append(bypass, part)
		}
	}

	return func(req *http.Request) (*url.URL, error) {
		host := req.URL.Hostname()
		for _, suffix := range bypass {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return nil, nil
			}
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
