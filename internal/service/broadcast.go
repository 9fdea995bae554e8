package service

// Broadcaster sends real-time events to connected spectators.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastMatchEvent(matchID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastMatchEvent(string, string, any) {}

// Event types broadcast to spectators.
const (
	EventMatchStarted = "match_started"
	EventTurnResolved = "turn_resolved"
	EventMatchEnded   = "match_ended"
)
