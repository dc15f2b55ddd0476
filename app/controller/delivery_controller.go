package controller

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"optovik-store/logger"
)

// DeliveryPrefix is the route prefix stripped before forwarding to the carrier
const DeliveryPrefix = "/api/delivery"

// DeliveryController forwards storefront calls to the postal carrier API.
// The carrier token never leaves the server.
type DeliveryController struct {
	proxy         *httputil.ReverseProxy
	allowedOrigin string
}

// NewDeliveryController creates a DeliveryController. It returns nil when no carrier URL is configured.
func NewDeliveryController(baseURL, token, allowedOrigin string) (*DeliveryController, error) {
	if baseURL == "" {
		return nil, nil
	}
	target, err := url.Parse(baseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid carrier URL %q", baseURL)
	}
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, DeliveryPrefix)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.Out.Host = target.Host
			pr.Out.Header.Del("Cookie")
			if token != "" {
				pr.Out.Header.Set("Authorization", "Bearer "+token)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			// The carrier's own CORS headers are replaced with ours.
			for k := range resp.Header {
				if strings.HasPrefix(http.CanonicalHeaderKey(k), "Access-Control-") {
					resp.Header.Del(k)
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Log.Errorf("❌ DeliveryProxy: %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Carrier API unavailable", http.StatusBadGateway)
		},
	}
	return &DeliveryController{proxy: proxy, allowedOrigin: allowedOrigin}, nil
}

// Proxy handles /api/delivery/*
func (c *DeliveryController) Proxy(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", c.allowedOrigin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Accept")
	if c.allowedOrigin != "*" {
		h.Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	logger.Log.Debugf("🚚 DeliveryProxy: %s %s", r.Method, r.URL.Path)
	c.proxy.ServeHTTP(w, r)
}
