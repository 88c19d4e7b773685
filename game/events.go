package game

// EventType names a notification emitted by a session.
type EventType string

const (
	EventSpawned     EventType = "spawned"
	EventMoved       EventType = "moved"
	EventLanded      EventType = "landed"
	EventValidating  EventType = "validating"
	EventRowsCleared EventType = "rows_cleared"
	EventLevelUp     EventType = "level_up"
	EventGameOver    EventType = "game_over"
	EventPaused      EventType = "paused"
	EventResumed     EventType = "resumed"
	EventReset       EventType = "reset"
)

// Event is a notification for UI and sound collaborators. Only the fields relevant to Type are set.
type Event struct {
	Type     EventType     `json:"type"`
	Block    *FallingBlock `json:"block,omitempty"`
	Count    int           `json:"count,omitempty"`
	Gain     int           `json:"gain,omitempty"`
	Status   Status        `json:"status,omitempty"`
	Feedback string        `json:"feedback,omitempty"`
	Outcomes []RowOutcome  `json:"outcomes,omitempty"`
	Level    int           `json:"level,omitempty"`
	Score    int           `json:"score,omitempty"`
}
