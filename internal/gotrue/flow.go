package gotrue

import (
	"context"
	"sync"
	"time"

	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

const (
	// FlowParam is the query parameter that carries the flow id back to the callback.
	FlowParam      = "flow"
	DefaultFlowTTL = 10 * time.Minute
)

type flow struct {
	verifier  string
	event     models.AuthEvent
	expiresAt time.Time
}

// FlowStore parks PKCE verifiers between sending an e-mail link and the
// browser coming back with the code.
type FlowStore struct {
	ttl   time.Duration
	now   func() time.Time
	flows sync.Map
}

func NewFlowStore(ttl time.Duration) *FlowStore {
	return &FlowStore{ttl: ttl, now: time.Now}
}

// put stores verifier and returns the id that identifies the flow.
func (s *FlowStore) put(verifier string, event models.AuthEvent) string {
	id := uuid.NewString()
	s.flows.Store(id, flow{
		verifier:  verifier,
		event:     event,
		expiresAt: s.now().Add(s.ttl),
	})
	return id
}

// take removes and returns the flow. Expired flows are reported as missing.
func (s *FlowStore) take(id string) (flow, bool) {
	v, ok := s.flows.LoadAndDelete(id)
	if !ok {
		return flow{}, false
	}
	f, ok := v.(flow)
	if !ok || s.now().After(f.expiresAt) {
		return flow{}, false
	}
	return f, true
}

// Cleanup drops expired flows every interval until ctx is done.
func (s *FlowStore) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *FlowStore) sweep() {
	now := s.now()
	s.flows.Range(func(key, value any) bool {
		if f, ok := value.(flow); ok && now.After(f.expiresAt) {
			s.flows.Delete(key)
		}
		return true
	})
}
