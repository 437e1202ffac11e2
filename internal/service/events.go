package service

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// EventPublisher broadcasts change events to live subscribers.
type EventPublisher interface {
	BroadcastEvent(eventType string, data json.RawMessage)
}

// Event types published by the services.
const (
	EventImportCompleted = "import.completed"
	EventNoteUpdated     = "note.updated"
)

// publishEvent is best-effort; a nil publisher drops the event.
func publishEvent(events EventPublisher, log *logrus.Logger, eventType string, payload any) {
	if events == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("event", eventType).Warn("encoding event payload")
		return
	}

	events.BroadcastEvent(eventType, data)
}
