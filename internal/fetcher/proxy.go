package fetcher

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
)

// ProxyPool rotates detail requests across outbound proxies and sidelines
// proxies whose connections fail.
type ProxyPool struct {
	mu       sync.Mutex
	proxies  []*proxyEntry
	rotation string
	next     int
	intn     func(n int) int
	logger   *slog.Logger
}

type proxyEntry struct {
	url     *url.URL
	healthy bool
}

// NewProxyPool parses rawURLs. Unparseable entries are logged and skipped.
// rotation is "random" or "round_robin" (the default).
func NewProxyPool(rawURLs []string, rotation string, logger *slog.Logger) *ProxyPool {
	p := &ProxyPool{
		rotation: rotation,
		intn:     rand.Intn,
		logger:   logger.With("component", "proxy_pool"),
	}
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			p.logger.Warn("invalid proxy URL", "url", raw, "error", err)
			continue
		}
		p.proxies = append(p.proxies, &proxyEntry{url: u, healthy: true})
	}
	return p
}

type proxyKey struct{}

// withProxy records the proxy chosen for one request.
func withProxy(ctx context.Context, u *url.URL) context.Context {
	return context.WithValue(ctx, proxyKey{}, u)
}

// requestProxy is the http.Transport.Proxy hook. A request without a chosen
// proxy falls back to the environment settings.
func requestProxy(req *http.Request) (*url.URL, error) {
	if u, ok := req.Context().Value(proxyKey{}).(*url.URL); ok && u != nil {
		return u, nil
	}
	return http.ProxyFromEnvironment(req)
}

// Next returns the proxy for the next request, or nil.
func (p *ProxyPool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	var healthy []*proxyEntry
	for _, e := range p.proxies {
		if e.healthy {
			healthy = append(healthy, e)
		}
	}
	if len(healthy) == 0 {
		return nil
	}

	if p.rotation == "random" {
		return healthy[p.intn(len(healthy))].url
	}
	e := healthy[p.next%len(healthy)]
	p.next++
	return e.url
}

// MarkFailed takes u out of rotation. When every proxy has failed they are all
// restored, so the pool degrades to cycling rather than to a direct connection.
func (p *ProxyPool) MarkFailed(u *url.URL, err error) {
	if u == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := 0
	for _, e := range p.proxies {
		if e.url.String() == u.String() && e.healthy {
			e.healthy = false
			p.logger.Warn("proxy marked unhealthy", "proxy", u.Host, "error", err)
		}
		if e.healthy {
			remaining++
		}
	}
	if remaining == 0 && len(p.proxies) > 0 {
		p.logger.Warn("every proxy failed, restoring the pool", "count", len(p.proxies))
		for _, e := range p.proxies {
			e.healthy = true
		}
	}
}

// Len returns the number of configured proxies.
func (p *ProxyPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// HealthyCount returns the number of proxies still in rotation.
func (p *ProxyPool) HealthyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.proxies {
		if e.healthy {
			n++
		}
	}
	return n
}
