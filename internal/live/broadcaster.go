// Package live streams recompiled rule sets to connected front-end clients
// over WebSocket whenever a field's publish state changes.
package live

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/event"
	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/render"
	"github.com/formforge/formforge/internal/store"
)

const writeTimeout = 5 * time.Second

// Message is the wire shape pushed to clients.
type Message struct {
	Type     string           `json:"type"` // "hello" or "rulesets"
	FormID   string           `json:"form_id,omitempty"`
	RuleSets []*field.RuleSet `json:"rulesets,omitempty"`
}

// Broadcaster accepts WebSocket clients and, as an event bus subscriber,
// pushes the live stage's recompiled rule sets after every publish and
// unpublish.
type Broadcaster struct {
	store store.Store

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewBroadcaster creates a Broadcaster over the given store.
func NewBroadcaster(s store.Store) *Broadcaster {
	return &Broadcaster{
		store:   s,
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades to WebSocket and keeps the connection registered until
// the client goes away. Clients never send anything meaningful; the read
// loop only detects disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("live: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
	}()

	ctx := r.Context()
	if err := b.write(ctx, conn, Message{Type: "hello"}); err != nil {
		return
	}

	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// HandleEvent implements eventbus.Handler. Publish-state events trigger a
// recompile of the affected form's live rule sets.
func (b *Broadcaster) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	if evt.EventType != event.TypeFieldPublished && evt.EventType != event.TypeFieldUnpublished {
		return nil
	}

	formID := formRef(evt)
	if formID == uuid.Nil {
		return nil
	}

	sets, err := render.RuleSets(ctx, b.store, formID, store.StageLive)
	if err != nil {
		return err
	}
	b.broadcast(ctx, Message{
		Type:     "rulesets",
		FormID:   formID.String(),
		RuleSets: sets,
	})
	return nil
}

func (b *Broadcaster) broadcast(ctx context.Context, msg Message) {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		if err := b.write(ctx, c, msg); err != nil {
			log.Printf("live: dropping slow client: %v", err)
			c.CloseNow()
		}
	}
}

func (b *Broadcaster) write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, msg)
}

func formRef(evt event.DomainEvent) uuid.UUID {
	for _, ref := range evt.AffectedEntities {
		if ref.EntityType == "form" {
			if id, err := uuid.Parse(ref.EntityID); err == nil {
				return id
			}
		}
	}
	return uuid.Nil
}
