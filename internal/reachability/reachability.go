// Package reachability answers the single question the authorization flows
// ask before presenting anything to the user: is the network up right now.
package reachability

import (
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultProbeTimeout = 3 * time.Second
	// probeCacheWindow bounds how often consecutive flow starts re-probe.
	probeCacheWindow = 5 * time.Second
)

// Checker probes network reachability by dialing well-known endpoints. A
// positive result is cached briefly so retry loops do not hammer the probes.
type Checker struct {
	addrs   []string
	timeout time.Duration

	mu        sync.Mutex
	lastOK    time.Time
	lastState bool
}

// NewChecker creates a checker probing the given host:port addresses. With no
// addresses it falls back to public DNS endpoints.
func NewChecker(addrs ...string) *Checker {
	if len(addrs) == 0 {
		addrs = []string{"1.1.1.1:53", "8.8.8.8:53"}
	}
	return &Checker{addrs: addrs, timeout: defaultProbeTimeout}
}

// IsConnected reports whether any probe endpoint is reachable.
func (c *Checker) IsConnected() bool {
	c.mu.Lock()
	if time.Since(c.lastOK) < probeCacheWindow {
		state := c.lastState
		c.mu.Unlock()
		return state
	}
	c.mu.Unlock()

	state := c.probe()
	c.mu.Lock()
	c.lastOK = time.Now()
	c.lastState = state
	c.mu.Unlock()
	return state
}

func (c *Checker) probe() bool {
	for _, addr := range c.addrs {
		conn, err := net.DialTimeout("tcp", addr, c.timeout)
		if err != nil {
			log.Debugf("reachability probe %s failed: %v", addr, err)
			continue
		}
		_ = conn.Close()
		return true
	}
	return false
}
