package handler

import "github.com/freeeve/territory/internal/service"

// BroadcastMatchEvent implements service.Broadcaster using the WebSocket hub.
// Start and end events also reach unsubscribed spectators so they can
// discover matches.
func (h *Hub) BroadcastMatchEvent(matchID string, eventType string, data any) {
	event := WSEvent{
		Type:    eventType,
		MatchID: matchID,
		Data:    data,
	}
	switch eventType {
	case service.EventMatchStarted, service.EventMatchEnded:
		h.BroadcastToAll(event)
	default:
		h.BroadcastToMatch(matchID, event)
	}
}
