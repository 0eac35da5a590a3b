package application

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

func TestNormalizeProxy(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "bare host gets http scheme", raw: "10.0.0.1:8080", want: "http://10.0.0.1:8080"},
		{name: "http kept", raw: "http://10.0.0.1:8080", want: "http://10.0.0.1:8080"},
		{name: "https kept", raw: "https://proxy.example.com", want: "https://proxy.example.com"},
		{name: "socks5 kept", raw: "socks5://10.0.0.1:1080", want: "socks5://10.0.0.1:1080"},
		{name: "socks4 kept", raw: "socks4://10.0.0.1:1080", want: "socks4://10.0.0.1:1080"},
		{name: "whitespace trimmed", raw: "  10.0.0.1:8080 ", want: "http://10.0.0.1:8080"},
		{name: "empty stays empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeProxy(tt.raw))
		})
	}
}

func TestAssignRoundRobinFairness(t *testing.T) {
	allocator := NewProxyAllocator([]string{"p1", "p2", "p3"})

	var order []string
	for i := 0; i < 5; i++ {
		order = append(order, allocator.Assign(domain.AccountID(fmt.Sprintf("acct-%d@x.y", i))))
	}

	assert.Equal(t, []string{"http://p1", "http://p2", "http://p3", "http://p1", "http://p2"}, order)
}

func TestAssignIsSticky(t *testing.T) {
	allocator := NewProxyAllocator([]string{"p1", "p2"})

	first := allocator.Assign("a@b.c")
	assert.Equal(t, first, allocator.Assign("a@b.c"))
	assert.Equal(t, first, allocator.Assign("a@b.c"))

	// The cursor only advanced once for this account.
	assert.Equal(t, "http://p2", allocator.Assign("x@y.z"))
}

func TestRotateOverwritesAssignment(t *testing.T) {
	allocator := NewProxyAllocator([]string{"p1", "p2", "p3"})

	assert.Equal(t, "http://p1", allocator.Assign("a@b.c"))
	assert.Equal(t, "http://p2", allocator.Rotate("a@b.c"))
	assert.Equal(t, "http://p2", allocator.Assign("a@b.c"))
}

func TestEmptyProxyListMeansDirect(t *testing.T) {
	allocator := NewProxyAllocator(nil)

	assert.Equal(t, "", allocator.Assign("a@b.c"))
	assert.Equal(t, "", allocator.Rotate("a@b.c"))
	assert.Empty(t, allocator.Pool())
}

func TestAllocatorConcurrentAssignEveryProxyUsedOnce(t *testing.T) {
	const n = 8
	proxies := make([]string, n)
	for i := range proxies {
		proxies[i] = fmt.Sprintf("p%d", i)
	}
	allocator := NewProxyAllocator(proxies)

	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = allocator.Assign(domain.AccountID(fmt.Sprintf("acct-%d@x.y", i)))
		}(i)
	}
	wg.Wait()

	seen := map[string]int{}
	for _, proxy := range results {
		seen[proxy]++
	}
	assert.Len(t, seen, n, "each account must receive a distinct proxy within one full cycle")
	for proxy, count := range seen {
		assert.Equal(t, 1, count, "proxy %s assigned more than once", proxy)
	}
}
