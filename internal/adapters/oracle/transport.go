package oracle

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// clientForProxy returns an HTTP client routed through the given proxy URI,
// or the shared direct client for "". Clients are cached per URI so keep-alive
// pools survive across cycles.
func (c *Client) clientForProxy(proxy string) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proxyClient == nil {
		c.proxyClient = make(map[string]*http.Client)
	}
	if client, ok := c.proxyClient[proxy]; ok {
		return client, nil
	}

	transport, err := transportFor(proxy)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Transport: transport}
	c.proxyClient[proxy] = client
	return client, nil
}

func transportFor(proxy string) (*http.Transport, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	if proxy == "" {
		return transport, nil
	}

	parsed, err := parseProxyURL(proxy)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(parsed.Scheme, "socks"):
		dialer, err := xproxy.FromURL(parsed, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("build socks dialer for %q: %w", proxy, err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if contextDialer, ok := dialer.(xproxy.ContextDialer); ok {
				return contextDialer.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	default:
		transport.Proxy = http.ProxyURL(parsed)
	}
	return transport, nil
}
