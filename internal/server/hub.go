package server

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rugby-coach/internal/game"
	"rugby-coach/internal/protocol"
)

// clientMessage is a helper struct to pass messages along with the client reference.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

const (
	sessionCodeLength = 5 // Length of the unique session code

	// Sessions nobody is watching are dropped after this long.
	sessionIdleTimeout = 2 * time.Hour
	sweepInterval      = 5 * time.Minute

	actionTimeout = 10 * time.Second
)

// Hub manages active WebSocket connections and coaching sessions.
type Hub struct {
	clients         map[*Client]bool
	sessions        map[string]*game.Session // Map session code to session
	idleSince       map[string]time.Time     // Sessions without subscribers
	clientToSession map[*Client]string       // Map client to session code
	processMessage  chan clientMessage
	register        chan *Client
	unregister      chan *Client
	clientMu        sync.RWMutex
	sessionMu       sync.RWMutex
	rng             *rand.Rand
	opts            game.Options
	log             *logrus.Entry
}

// NewHub creates a new Hub. opts is used for every session it creates.
func NewHub(opts game.Options, log *logrus.Entry) *Hub {
	source := rand.NewSource(time.Now().UnixNano())

	if opts.Log == nil {
		opts.Log = log
	}
	return &Hub{
		clients:         make(map[*Client]bool),
		sessions:        make(map[string]*game.Session),
		idleSince:       make(map[string]time.Time),
		clientToSession: make(map[*Client]string),
		processMessage:  make(chan clientMessage),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		rng:             rand.New(source),
		opts:            opts,
		log:             log,
	}
}

// generateSessionCode creates a unique alphanumeric session code.
func (h *Hub) generateSessionCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		var sb strings.Builder
		for i := 0; i < sessionCodeLength; i++ {
			sb.WriteByte(letters[h.rng.Intn(len(letters))])
		}
		code := sb.String()

		h.sessionMu.RLock()
		_, exists := h.sessions[code]
		h.sessionMu.RUnlock()

		if !exists {
			return code
		}
		h.log.WithField("code", code).Debug("Generated session code collided, retrying")
	}
}

// Run starts the Hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			client.ID = uuid.NewString() // Assign a unique ID upon registration
			h.log.WithFields(logrus.Fields{"client": client.ID, "remote": client.remoteAddr()}).Info("Client connected")
			h.clientMu.Lock()
			h.clients[client] = true
			h.clientMu.Unlock()

		case client := <-h.unregister:
			h.removeClient(client)

		case clientMsg := <-h.processMessage:
			h.handleMessage(clientMsg.client, clientMsg.message)

		case now := <-sweep.C:
			h.dropIdleSessions(now)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.clientMu.Lock()
	code, inSession := h.clientToSession[client]
	_, clientExists := h.clients[client]
	if clientExists {
		delete(h.clients, client)
		delete(h.clientToSession, client)
		close(client.send)
	}
	h.clientMu.Unlock()

	if !clientExists {
		return
	}
	log := h.log.WithField("client", client.ID)
	if !inSession {
		log.Info("Client disconnected before joining a session")
		return
	}

	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()
	session, ok := h.sessions[code]
	if !ok {
		log.WithField("code", code).Warn("Client was mapped to a missing session")
		return
	}
	if session.Unsubscribe(client.ID) == 0 {
		h.idleSince[code] = time.Now()
	}
	log.WithField("code", code).Info("Client disconnected")
}

// dropIdleSessions forgets sessions that have had no clients for too long.
func (h *Hub) dropIdleSessions(now time.Time) {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()
	for code, since := range h.idleSince {
		if now.Sub(since) >= sessionIdleTimeout {
			delete(h.sessions, code)
			delete(h.idleSince, code)
			h.log.WithField("code", code).Info("Idle session removed")
		}
	}
}

// handleMessage processes a message received from a client.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeCreateSession:
		h.handleCreateSession(client, msg)
	case protocol.TypeJoinSession:
		h.handleJoinSession(client, msg)
	case protocol.TypePing:
		pongMsg, _ := protocol.NewMessage(protocol.TypePong, nil)
		h.sendMessageToClient(client.ID, pongMsg)
	default:
		h.handleSessionAction(client, msg)
	}
}

// handleCreateSession starts a new coaching session for the client.
func (h *Hub) handleCreateSession(client *Client, msg protocol.Message) {
	if h.sessionOf(client) != "" {
		h.sendErrorToClient(client, "Already in a session.")
		return
	}

	var payload protocol.CreateSessionPayload
	if err := protocol.Decode(msg, &payload); err != nil {
		h.log.WithError(err).WithField("client", client.ID).Warn("Invalid create_session payload")
		h.sendErrorToClient(client, "Invalid create_session message format.")
		return
	}

	code := h.generateSessionCode()
	session := game.NewSession(code, h.opts)
	if payload.Country != "" {
		if err := session.SetCountry(payload.Country); err != nil {
			h.sendErrorToClient(client, err.Error())
			return
		}
	}
	session.SetSender(h.sendMessageToClient)

	h.sessionMu.Lock()
	h.sessions[code] = session
	h.sessionMu.Unlock()

	h.clientMu.Lock()
	h.clientToSession[client] = code
	h.clientMu.Unlock()

	h.log.WithFields(logrus.Fields{"client": client.ID, "code": code}).Info("Session created")

	createdMsg, _ := protocol.NewMessage(protocol.TypeSessionCreated, protocol.SessionCreatedPayload{Code: code})
	h.sendMessageToClient(client.ID, createdMsg)
	session.Subscribe(client.ID)
}

// handleJoinSession subscribes the client to an existing session.
func (h *Hub) handleJoinSession(client *Client, msg protocol.Message) {
	if h.sessionOf(client) != "" {
		h.sendJoinError(client, "Already in a session.")
		return
	}

	var payload protocol.JoinSessionPayload
	if err := protocol.Decode(msg, &payload); err != nil {
		h.sendJoinError(client, "Invalid join_session message format.")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	if code == "" {
		h.sendJoinError(client, "Session code cannot be empty.")
		return
	}

	h.sessionMu.Lock()
	session, exists := h.sessions[code]
	if exists {
		delete(h.idleSince, code)
	}
	h.sessionMu.Unlock()
	if !exists {
		h.log.WithFields(logrus.Fields{"client": client.ID, "code": code}).Info("Join for unknown session")
		h.sendJoinError(client, "Session code not found.")
		return
	}

	h.clientMu.Lock()
	h.clientToSession[client] = code
	h.clientMu.Unlock()

	h.log.WithFields(logrus.Fields{"client": client.ID, "code": code}).Info("Client joined session")
	session.Subscribe(client.ID)
}

// handleSessionAction forwards coaching actions to the client's session.
func (h *Hub) handleSessionAction(client *Client, msg protocol.Message) {
	code := h.sessionOf(client)
	if code == "" {
		h.log.WithFields(logrus.Fields{"client": client.ID, "type": msg.Type}).Debug("Action from client outside a session")
		h.sendErrorToClient(client, "You are not in a session.")
		return
	}

	h.sessionMu.RLock()
	session, exists := h.sessions[code]
	h.sessionMu.RUnlock()
	if !exists {
		h.sendErrorToClient(client, "Session not found.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	session.HandleAction(ctx, client.ID, msg)
}

func (h *Hub) sessionOf(client *Client) string {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return h.clientToSession[client]
}

// sendMessageToClient allows sessions to send messages back via the hub/client.
// This is passed as a callback to each session.
func (h *Hub) sendMessageToClient(clientID string, message []byte) {
	h.clientMu.RLock()
	var targetClient *Client
	for client := range h.clients {
		if client.ID == clientID {
			targetClient = client
			break
		}
	}
	// Sending under the read lock keeps close(client.send) from racing us.
	if targetClient != nil {
		select {
		case targetClient.send <- message:
		default:
			h.log.WithField("client", clientID).Warn("Send buffer full, dropping client")
			go func() { h.unregister <- targetClient }()
		}
	}
	h.clientMu.RUnlock()

	if targetClient == nil {
		h.log.WithField("client", clientID).Debug("Could not find client to send message (already disconnected?)")
	}
}

// sendErrorToClient sends a generic error message to a specific client.
func (h *Hub) sendErrorToClient(client *Client, errorMsg string) {
	msgBytes, err := protocol.NewMessage(protocol.TypeError, protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		h.log.WithError(err).Error("Cannot create error message")
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}

// sendJoinError sends a specific join error message to a client.
func (h *Hub) sendJoinError(client *Client, errorMsg string) {
	msgBytes, err := protocol.NewMessage(protocol.TypeJoinError, protocol.JoinErrorPayload{Message: errorMsg})
	if err != nil {
		h.log.WithError(err).Error("Cannot create join_error message")
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}
