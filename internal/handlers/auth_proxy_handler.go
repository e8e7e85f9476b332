package handlers

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"authsync-platform/internal/authproxy"
	"authsync-platform/internal/observability/metrics"

	"github.com/gin-gonic/gin"
)

// AuthProxyHandler sits on the router's no-route path. It classifies every
// unmatched request and either drops it (static resources, root, page
// routes) or reverse-proxies it to the auth origin (auth actions). The
// X-Auth-Proxy header names the rule that decided, which is the first thing
// to look at when a path is routed unexpectedly.
type AuthProxyHandler struct {
	proxy *httputil.ReverseProxy
}

// NewAuthProxyHandler builds the handler. authOrigin is the base URL of the
// authentication service; empty means no origin is configured and auth
// actions answer 502 instead of proxying.
func NewAuthProxyHandler(authOrigin string) (*AuthProxyHandler, error) {
	h := &AuthProxyHandler{}
	if authOrigin != "" {
		target, err := url.Parse(authOrigin)
		if err != nil {
			return nil, fmt.Errorf("parse auth origin %q: %w", authOrigin, err)
		}
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("[AuthProxy] upstream error for %s: %v", r.URL.Path, err)
			w.Header().Set("X-Auth-Proxy", "upstream-error")
			w.WriteHeader(http.StatusBadGateway)
		}
		h.proxy = proxy
	} else {
		log.Println("[AuthProxy] no auth origin configured, auth actions will answer 502")
	}
	return h, nil
}

// Handle classifies the request path and acts on the verdict.
func (h *AuthProxyHandler) Handle(ctx *gin.Context) {
	path := ctx.Request.URL.Path
	rule, verdict := authproxy.MatchedRule(path)
	metrics.IncProxyVerdict(verdict.String())

	ctx.Header("X-Auth-Proxy", rule)

	switch verdict {
	case authproxy.Skip:
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})

	case authproxy.AuthAction:
		if h.proxy == nil {
			ctx.Header("X-Auth-Proxy", "auth-origin-unconfigured")
			ctx.JSON(http.StatusBadGateway, gin.H{"error": "Auth origin not configured"})
			return
		}
		log.Printf("[AuthProxy] proxying %s %s (rule=%s)", ctx.Request.Method, path, rule)
		h.proxy.ServeHTTP(ctx.Writer, ctx.Request)

	default:
		// Page routes and anything unmatched fall through to the
		// application, which this service is not; answer 404.
		if rule == "default" {
			ctx.Header("X-Auth-Proxy", "non-auth-request")
		}
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	}
}
