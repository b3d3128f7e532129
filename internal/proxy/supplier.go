package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const (
	checkTimeout      = 5 * time.Second
	maxParallelChecks = 50
)

// ProxySupplier hands out outbound proxies for Etsy calls in round-robin order.
// Get returns "" when no proxy is configured, meaning a direct connection.
type ProxySupplier interface {
	Get() string
	Len() int
}

type proxySupplier struct {
	mu      sync.Mutex
	proxies []string
	next    int
}

// NewProxySupplier keeps, in configured order, the proxies through which pingURL answers
// with a success status when called with the application API key.
func NewProxySupplier(ctx context.Context, proxies []string, pingURL, apiKey string) ProxySupplier {
	if len(proxies) == 0 {
		return &proxySupplier{}
	}

	reachable := make([]bool, len(proxies))
	var g errgroup.Group
	g.SetLimit(maxParallelChecks)
	for i, proxyURL := range proxies {
		g.Go(func() error {
			reachable[i] = ping(ctx, proxyURL, pingURL, apiKey)
			return nil
		})
	}
	_ = g.Wait()

	usable := make([]string, 0, len(proxies))
	for i, ok := range reachable {
		if ok {
			usable = append(usable, proxies[i])
		}
	}

	if len(usable) == 0 {
		log.Warnf("⚠️ None of %d configured proxies reach Etsy, using direct connections", len(proxies))
	} else {
		log.Infof("🌐 %d of %d proxies reach Etsy", len(usable), len(proxies))
	}

	return &proxySupplier{proxies: usable}
}

func (p *proxySupplier) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxyURL := p.proxies[p.next]
	p.next = (p.next + 1) % len(p.proxies)
	return proxyURL
}

func (p *proxySupplier) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

func ping(ctx context.Context, proxyURL, pingURL, apiKey string) bool {
	client := resty.New().
		SetTimeout(checkTimeout).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("x-api-key", apiKey).
		Get(pingURL)
	if err != nil {
		log.Debugf("Proxy %s unreachable: %v", proxyURL, err)
		return false
	}
	if resp.IsError() {
		log.Debugf("Proxy %s answered %s", proxyURL, resp.Status())
		return false
	}
	return true
}
