package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MilestoneKind tells whether a threshold was crossed upwards or downwards.
type MilestoneKind string

const (
	MilestoneReached MilestoneKind = "reached"
	MilestoneLost    MilestoneKind = "lost"
)

// MilestoneEvent announces that a goal crossed a progress threshold.
type MilestoneEvent struct {
	EventID    string        `json:"event_id"`
	UserID     string        `json:"user_id"`
	GoalID     string        `json:"goal_id"`
	GoalTitle  string        `json:"goal_title"`
	Kind       MilestoneKind `json:"kind"`
	Threshold  int           `json:"threshold"`
	Percentage float64       `json:"percentage"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewMilestoneEvent stamps a new event with a unique ID and the current time.
func NewMilestoneEvent(userID, goalID, title string, kind MilestoneKind, threshold int, percentage float64) *MilestoneEvent {
	return &MilestoneEvent{
		EventID:    uuid.NewString(),
		UserID:     userID,
		GoalID:     goalID,
		GoalTitle:  title,
		Kind:       kind,
		Threshold:  threshold,
		Percentage: percentage,
		OccurredAt: time.Now().UTC(),
	}
}

// Validate rejects events a consumer cannot act on.
func (m *MilestoneEvent) Validate() error {
	if m.GoalID == "" {
		return fmt.Errorf("missing goal_id")
	}
	if m.Kind != MilestoneReached && m.Kind != MilestoneLost {
		return fmt.Errorf("unknown kind %q", m.Kind)
	}
	switch m.Threshold {
	case 25, 50, 75, 100:
	default:
		return fmt.Errorf("unknown threshold %d", m.Threshold)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *MilestoneEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MilestoneEventFromJSON decodes and validates a message body.
func MilestoneEventFromJSON(data []byte) (*MilestoneEvent, error) {
	var msg MilestoneEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid milestone event: %w", err)
	}
	return &msg, nil
}
