// Package realtime is the event router over persistent websocket
// connections. It owns the connection set, feeds the presence registry and
// fans presence and message events out to peers. Each inbound event is
// handled to completion before its side effects are emitted; separate
// connections are serviced concurrently.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"cadenza/internal/apperr"
	"cadenza/internal/presence"
	"cadenza/pkg/models"
)

const sendTimeout = 10 * time.Second

// MessageSender persists a direct message and returns its wire shape.
// Implemented by chat.Service.
type MessageSender interface {
	Send(ctx context.Context, senderID, receiverID, content string) (models.MessageOut, error)
}

// Gateway routes presence and message events between connected clients.
type Gateway struct {
	registry *presence.Registry
	sender   MessageSender
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewGateway creates the event router over the given registry and messaging
// service.
func NewGateway(registry *presence.Registry, sender MessageSender, logger *logrus.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		sender:   sender,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from a different origin than the API
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]struct{}),
	}
}

// HandleWS upgrades an HTTP request into a gateway connection. The new
// connection starts anonymous; it joins presence only after identifying.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := newClient(g, conn)
	g.addClient(client)
	client.start()
}

func (g *Gateway) addClient(c *Client) {
	g.mu.Lock()
	g.clients[c] = struct{}{}
	total := len(g.clients)
	g.mu.Unlock()

	g.logger.WithField("total_clients", total).Info("Websocket client connected")
}

// dispatch routes one inbound event to its handler.
func (g *Gateway) dispatch(c *Client, event Event) {
	switch event.Event {
	case EventUserConnected:
		var userID string
		if err := json.Unmarshal(event.Data, &userID); err != nil || userID == "" {
			g.logger.WithError(err).Warn("Malformed identify event")
			return
		}
		g.handleIdentify(c, userID)

	case EventUpdateActivity:
		var payload ActivityPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			g.logger.WithError(err).Warn("Malformed activity event")
			return
		}
		g.handleActivity(payload)

	case EventSendMessage:
		var payload MessagePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			g.logger.WithError(err).Warn("Malformed message event")
			return
		}
		g.handleSendMessage(c, payload)

	default:
		g.logger.WithField("event", event.Event).Debug("Ignoring unknown event")
	}
}

// handleIdentify registers the connection for the user (overwriting any
// previous connection), announces the arrival to everyone else and replays
// the current presence state to the new peer.
func (g *Gateway) handleIdentify(c *Client, userID string) {
	g.registry.Register(userID, c)

	g.broadcastExcept(c, OutEvent{Event: EventUserConnected, Data: userID})
	c.deliver(OutEvent{Event: EventUsersOnline, Data: g.registry.OnlineIDs()})
	g.broadcast(OutEvent{Event: EventActivities, Data: g.registry.Activities()})
}

// handleActivity stores the new label and announces it. Updates for users
// that never identified are dropped.
func (g *Gateway) handleActivity(payload ActivityPayload) {
	if !g.registry.UpdateActivity(payload.UserID, payload.Activity) {
		g.logger.WithField("user_id", payload.UserID).Warn("Activity update for unidentified user")
		return
	}

	g.broadcast(OutEvent{Event: EventActivityUpdated, Data: payload})
}

// handleSendMessage persists the message, unicasts it to the receiver if they
// are connected and echoes it back to the sender. Failures surface only to
// the sender; nothing is retried.
func (g *Gateway) handleSendMessage(c *Client, payload MessagePayload) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	message, err := g.sender.Send(ctx, payload.SenderID, payload.ReceiverID, payload.Content)
	if err != nil {
		c.deliver(OutEvent{Event: EventMessageError, Data: apperr.FromError(err).Detail})
		return
	}

	if conn, ok := g.registry.Resolve(payload.ReceiverID); ok {
		if receiver, ok := conn.(*Client); ok {
			receiver.deliver(OutEvent{Event: EventReceiveMessage, Data: message})
		}
	}

	c.deliver(OutEvent{Event: EventMessageSent, Data: message})
}

// handleDisconnect drops the connection from the set and, if it was
// identified, removes it from presence and announces the departure. Safe to
// reach twice for the same connection; the second pass finds nothing.
func (g *Gateway) handleDisconnect(c *Client) {
	g.mu.Lock()
	_, tracked := g.clients[c]
	delete(g.clients, c)
	total := len(g.clients)
	g.mu.Unlock()

	if tracked {
		g.logger.WithField("total_clients", total).Info("Websocket client disconnected")
	}

	if userID, removed := g.registry.UnregisterConn(c); removed {
		g.broadcast(OutEvent{Event: EventUserDisconnected, Data: userID})
	}
}

// broadcast delivers an event to every connected client.
func (g *Gateway) broadcast(event OutEvent) {
	for _, client := range g.snapshotClients() {
		client.deliver(event)
	}
}

// broadcastExcept delivers an event to every connected client but one.
func (g *Gateway) broadcastExcept(skip *Client, event OutEvent) {
	for _, client := range g.snapshotClients() {
		if client != skip {
			client.deliver(event)
		}
	}
}

func (g *Gateway) snapshotClients() []*Client {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clients := make([]*Client, 0, len(g.clients))
	for client := range g.clients {
		clients = append(clients, client)
	}
	return clients
}
