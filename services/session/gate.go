// Package session hosts the per-player watcher that turns the embedded
// player's position reports into progress commits, history snapshots, and
// skip-prompt state.
package session

import (
	"encoding/json"
	"net"
	"net/url"
	"strings"
)

// Event is one position report from the embedded player.
type Event struct {
	Timestamp float64
	Duration  float64
}

// OriginGate is the trust boundary for the cross-origin message channel.
// It holds the allow-list of player-embed hostnames and parses the untrusted
// payload; anything that fails either check is silently dropped. Rejections
// are deliberately not surfaced: an error channel would leak back into an
// adversarial embedded frame.
type OriginGate struct {
	allowed map[string]struct{}
}

// NewOriginGate builds a gate from configured hostnames. Entries may be bare
// hostnames or full origins; only the hostname is matched.
func NewOriginGate(hosts []string) *OriginGate {
	allowed := make(map[string]struct{}, len(hosts))
	for _, host := range hosts {
		if normalized := normalizeHost(host); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	return &OriginGate{allowed: allowed}
}

// Allows reports whether the message origin's hostname is on the allow-list.
func (g *OriginGate) Allows(origin string) bool {
	host := normalizeHost(origin)
	if host == "" {
		return false
	}
	_, ok := g.allowed[host]
	return ok
}

// Decode authenticates the origin and parses the payload. The payload is
// either a JSON object or a JSON string wrapping one; both timestamp and
// duration must be present and non-negative. The second return value is
// false for anything untrusted or malformed.
func (g *OriginGate) Decode(origin string, payload []byte) (Event, bool) {
	if !g.Allows(origin) {
		return Event{}, false
	}
	return parseEvent(payload)
}

type rawEvent struct {
	Timestamp *float64 `json:"timestamp"`
	Duration  *float64 `json:"duration"`
}

func parseEvent(payload []byte) (Event, bool) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		// Some player builds double-encode the payload as a JSON string.
		var inner string
		if err := json.Unmarshal(payload, &inner); err != nil {
			return Event{}, false
		}
		if err := json.Unmarshal([]byte(inner), &raw); err != nil {
			return Event{}, false
		}
	}

	if raw.Timestamp == nil || raw.Duration == nil {
		return Event{}, false
	}
	if *raw.Timestamp < 0 || *raw.Duration < 0 {
		return Event{}, false
	}
	return Event{Timestamp: *raw.Timestamp, Duration: *raw.Duration}, true
}

func normalizeHost(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return ""
	}
	if strings.Contains(origin, "://") {
		if u, err := url.Parse(origin); err == nil && u.Hostname() != "" {
			return strings.ToLower(u.Hostname())
		}
		return ""
	}
	// Bare host, possibly with a port.
	if host, _, err := net.SplitHostPort(origin); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(strings.Trim(origin, "/"))
}
