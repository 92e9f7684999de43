package pool

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	// Registers socks4:// and socks4a:// with x/net/proxy
	_ "github.com/bdandy/go-socks4"
	"golang.org/x/net/proxy"
)

// Simple rotating proxy pool. Every entry is resolved up front so a bad line
// fails at startup rather than mid-run.

type Proxy struct {
	URL *url.URL

	// nil for HTTP proxies, which the transport talks to itself
	Dialer proxy.Dialer
}

func (p Proxy) IsHTTP() bool {
	return p.URL.Scheme == "http" || p.URL.Scheme == "https"
}

type Pool struct {
	Proxies []Proxy

	index       int
	accessMutex sync.Mutex
}

// Initialize a new pool with a proxy list file. Blank lines and lines starting
// with '#' are ignored.
func New(filePath string) (*Pool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open proxy list: %w", err)
	}
	defer f.Close()

	lines := []string{}

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}

	return FromURLs(lines)
}

// FromURLs builds a pool from proxy URLs in the format
// "scheme://[username:pass@]host[:port]", scheme being one of socks4, socks4a,
// socks5, socks5h, http or https. A pool can't mix HTTP and SOCKS proxies.
func FromURLs(rawURLs []string) (*Pool, error) {
	pool := &Pool{}

	for _, raw := range rawURLs {
		proxyUrl, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
		} else if proxyUrl.Scheme == "" || proxyUrl.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q: expected scheme://host[:port]", raw)
		}

		p := Proxy{URL: proxyUrl}
		if !p.IsHTTP() {
			p.Dialer, err = proxy.FromURL(proxyUrl, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
			}
		}

		if len(pool.Proxies) > 0 && pool.Proxies[0].IsHTTP() != p.IsHTTP() {
			return nil, fmt.Errorf("invalid proxy %q: the list mixes HTTP and SOCKS proxies", raw)
		}

		pool.Proxies = append(pool.Proxies, p)
	}

	if len(pool.Proxies) == 0 {
		return nil, fmt.Errorf("no proxies available in the pool")
	}

	return pool, nil
}

func (pool *Pool) Len() int {
	return len(pool.Proxies)
}

// HTTP reports whether the pool holds HTTP proxies rather than SOCKS ones.
func (pool *Pool) HTTP() bool {
	return len(pool.Proxies) > 0 && pool.Proxies[0].IsHTTP()
}

// Request the next proxy from the pool, round-robin
func (pool *Pool) Get() (Proxy, error) {
	pool.accessMutex.Lock()
	defer pool.accessMutex.Unlock()

	poolLen := len(pool.Proxies)
	if poolLen == 0 {
		return Proxy{}, fmt.Errorf("no proxies available in the pool")
	}

	p := pool.Proxies[pool.index]
	pool.index = (pool.index + 1) % poolLen

	return p, nil
}
