package gateway

import (
	"slices"
	"sync"
	"time"

	"github.com/harun/toolhub/internal/observability"
)

// A client silent for longer than this is reported idle.
const idleAfter = 5 * time.Minute

// ClientRegistry tracks connected WebSocket clients by id and keeps the
// gateway_clients gauge in step with its size.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*Client)}
}

func (r *ClientRegistry) Add(client *Client) {
	r.mu.Lock()
	r.clients[client.ID] = client
	n := len(r.clients)
	r.mu.Unlock()

	observability.SetGatewayClients(n)
}

func (r *ClientRegistry) Remove(clientID string) {
	r.mu.Lock()
	delete(r.clients, clientID)
	n := len(r.clients)
	r.mu.Unlock()

	observability.SetGatewayClients(n)
}

// Touch records activity for clientID; unknown ids are ignored.
func (r *ClientRegistry) Touch(clientID string) {
	r.mu.Lock()
	if c, ok := r.clients[clientID]; ok {
		c.LastActivity = time.Now()
	}
	r.mu.Unlock()
}

// Snapshot returns the connected clients at this instant.
func (r *ClientRegistry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Infos describes every connected client, oldest connection first.
func (r *ClientRegistry) Infos() []ClientInfo {
	r.mu.RLock()
	now := time.Now()
	infos := make([]ClientInfo, 0, len(r.clients))
	for _, c := range r.clients {
		infos = append(infos, ClientInfo{
			ID:           c.ID,
			ConnectedAt:  c.ConnectedAt,
			LastActivity: c.LastActivity,
			IPAddress:    c.IPAddress,
			Idle:         now.Sub(c.LastActivity) > idleAfter,
		})
	}
	r.mu.RUnlock()

	slices.SortFunc(infos, func(a, b ClientInfo) int { return a.ConnectedAt.Compare(b.ConnectedAt) })
	return infos
}
