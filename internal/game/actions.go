package game

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rugby-coach/internal/protocol"
)

// SetSender installs the callback used to reach subscribed clients.
func (s *Session) SetSender(sender MessageSender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendMessage = sender
}

// Subscribe adds a client to the session and sends it the current state.
func (s *Session) Subscribe(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers[clientID] = true
	s.log.WithField("client", clientID).Info("Client joined session")
	if msg, err := protocol.NewMessage(protocol.TypeSessionState, s.snapshot()); err == nil {
		s.sendToClient(clientID, msg)
	}
}

// Unsubscribe removes a client. It returns the number of clients left.
func (s *Session) Unsubscribe(clientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subscribers, clientID)
	s.log.WithField("client", clientID).Info("Client left session")
	return len(s.subscribers)
}

// HandleAction applies a client message to the session. Failures are
// reported back to the acting client only.
func (s *Session) HandleAction(ctx context.Context, clientID string, msg protocol.Message) {
	log := s.log.WithFields(logrus.Fields{"client": clientID, "action": msg.Type})

	var err error
	switch msg.Type {
	case protocol.TypeSetCountry:
		var payload protocol.SetCountryPayload
		if err = protocol.Decode(msg, &payload); err == nil {
			err = s.SetCountry(payload.Country)
		}
	case protocol.TypeSelectGame:
		var payload protocol.SelectGamePayload
		if err = protocol.Decode(msg, &payload); err == nil {
			err = s.SelectGame(payload.GameID)
		}
	case protocol.TypeSetAvailability:
		var payload protocol.SetAvailabilityPayload
		if err = protocol.Decode(msg, &payload); err == nil {
			err = s.SetAvailability(payload.PlayerID, payload.Available)
		}
	case protocol.TypeSetScore:
		var payload protocol.SetScorePayload
		if err = protocol.Decode(msg, &payload); err == nil {
			err = s.SetScore(payload.HomeScore, payload.AwayScore)
		}
	case protocol.TypeSetPreselected:
		var payload protocol.SetPreselectedPayload
		if err = protocol.Decode(msg, &payload); err == nil {
			err = s.SetPreselected(payload.Slots)
		}
	case protocol.TypeStartGame:
		err = s.StartGame(ctx)
	case protocol.TypeStopGame:
		s.StopGame()
	case protocol.TypeStartStint:
		s.StartStint()
	case protocol.TypeEndStint:
		err = s.EndStint(ctx)
	case protocol.TypeOptimize:
		err = s.Optimize(ctx)
	case protocol.TypeClearSelection:
		s.ClearSelection()
	case protocol.TypeReset:
		s.Reset()
	default:
		err = errors.Errorf("unknown action %q", msg.Type)
	}

	if err != nil {
		log.WithError(err).Warn("Action rejected")
		s.mu.Lock()
		s.sendErrorToClient(clientID, err.Error())
		s.mu.Unlock()
		return
	}
	log.Debug("Action applied")
}

// --- Messaging Helpers (Assume lock is held) ---

// broadcast sends a message to every subscribed client.
func (s *Session) broadcast(message []byte) {
	if s.sendMessage == nil {
		return
	}
	for clientID := range s.subscribers {
		s.sendMessage(clientID, message)
	}
}

func (s *Session) sendToClient(clientID string, message []byte) {
	if s.sendMessage == nil {
		s.log.WithField("client", clientID).Warn("No sender installed, dropping message")
		return
	}
	s.sendMessage(clientID, message)
}

func (s *Session) sendErrorToClient(clientID string, errorMsg string) {
	msgBytes, err := protocol.NewMessage(protocol.TypeError, protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		s.log.WithError(err).Error("Cannot create error message")
		return
	}
	s.sendToClient(clientID, msgBytes)
}

// broadcastState sends the current state to every subscriber.
func (s *Session) broadcastState() {
	msgBytes, err := protocol.NewMessage(protocol.TypeSessionState, s.snapshot())
	if err != nil {
		s.log.WithError(err).Error("Cannot create session_state message")
		return
	}
	s.broadcast(msgBytes)
}
