package application

import (
	"strings"
	"sync"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

var proxySchemes = []string{"http://", "https://", "socks4://", "socks5://"}

// NormalizeProxy defaults unschemed proxy entries to http.
func NormalizeProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, scheme := range proxySchemes {
		if strings.HasPrefix(raw, scheme) {
			return raw
		}
	}
	return "http://" + raw
}

// ProxyAllocator hands out sticky proxy assignments from a shared ordered
// list. The cursor is process-wide: accounts running concurrently share one
// allocator, so every mutation happens under the lock.
type ProxyAllocator struct {
	mu       sync.Mutex
	proxies  []string
	cursor   int
	assigned map[domain.AccountID]string
}

func NewProxyAllocator(proxies []string) *ProxyAllocator {
	normalized := make([]string, 0, len(proxies))
	for _, proxy := range proxies {
		if p := NormalizeProxy(proxy); p != "" {
			normalized = append(normalized, p)
		}
	}
	return &ProxyAllocator{
		proxies:  normalized,
		assigned: make(map[domain.AccountID]string),
	}
}

// Assign returns the account's sticky proxy, taking the next list entry on
// first use. An empty proxy list means every account connects directly.
func (p *ProxyAllocator) Assign(id domain.AccountID) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if proxy, ok := p.assigned[id]; ok {
		return proxy
	}
	return p.takeNext(id)
}

// Rotate unconditionally re-assigns the account from the cursor; used after
// a failure plausibly caused by a bad proxy.
func (p *ProxyAllocator) Rotate(id domain.AccountID) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.takeNext(id)
}

// Pool returns the normalized proxy list for per-chunk assignment.
func (p *ProxyAllocator) Pool() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := make([]string, len(p.proxies))
	copy(pool, p.proxies)
	return pool
}

func (p *ProxyAllocator) takeNext(id domain.AccountID) string {
	if len(p.proxies) == 0 {
		return ""
	}
	proxy := p.proxies[p.cursor]
	p.assigned[id] = proxy
	p.cursor = (p.cursor + 1) % len(p.proxies)
	return proxy
}
