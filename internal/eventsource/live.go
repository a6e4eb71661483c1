package eventsource

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/predictsim/core/internal/model"
)

// LiveSourceConfig configures the NATS-backed paper-mode push feed.
// An empty MarketIDs subscribes to every update on Subject; a non-empty
// one drops updates for any other market before the callback fires.
type LiveSourceConfig struct {
	URL       string
	Subject   string
	MarketIDs []string
}

// LiveSource is the live-feed DataProvider analogue for paper
// trading: it subscribes to a NATS subject carrying JSON-encoded
// market snapshots and invokes a registered callback once per message
// in real wall-clock arrival order.
type LiveSource struct {
	cfg     LiveSourceConfig
	allowed map[string]bool

	mu       sync.Mutex
	conn     *nats.Conn
	sub      *nats.Subscription
	callback func(model.SimEvent)
}

// NewLiveSource constructs a disconnected live source.
func NewLiveSource(cfg LiveSourceConfig) *LiveSource {
	l := &LiveSource{cfg: cfg}
	if len(cfg.MarketIDs) > 0 {
		l.allowed = make(map[string]bool, len(cfg.MarketIDs))
		for _, id := range cfg.MarketIDs {
			l.allowed[id] = true
		}
	}
	return l
}

// Connect dials NATS and subscribes to the configured subject.
func (l *LiveSource) Connect(ctx context.Context) error {
	conn, err := nats.Connect(l.cfg.URL)
	if err != nil {
		return fmt.Errorf("eventsource: connect nats: %w", err)
	}

	sub, err := conn.Subscribe(l.cfg.Subject, func(msg *nats.Msg) {
		snap, err := decodeSnapshot(msg.Data)
		if err != nil {
			log.Printf("eventsource: dropping malformed market update: %v", err)
			return
		}
		if !l.accepts(snap.MarketID) {
			return
		}
		l.mu.Lock()
		cb := l.callback
		l.mu.Unlock()
		if cb != nil {
			cb(model.MarketUpdateEvent{Snapshot: snap})
		}
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("eventsource: subscribe %s: %w", l.cfg.Subject, err)
	}

	l.mu.Lock()
	l.conn = conn
	l.sub = sub
	l.mu.Unlock()
	return nil
}

// Disconnect unsubscribes and closes the NATS connection.
func (l *LiveSource) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sub != nil {
		if err := l.sub.Unsubscribe(); err != nil {
			return err
		}
		l.sub = nil
	}
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
	return nil
}

// accepts reports whether an update for marketID should reach the
// callback. A nil allow-list (no MarketIDs configured) accepts everything.
func (l *LiveSource) accepts(marketID string) bool {
	return l.allowed == nil || l.allowed[marketID]
}

// OnUpdate registers the callback invoked for every received update.
func (l *LiveSource) OnUpdate(callback func(model.SimEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callback = callback
}

func decodeSnapshot(data []byte) (model.MarketSnapshot, error) {
	var snap model.MarketSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.MarketSnapshot{}, err
	}
	return snap, nil
}
