package amqp

import (
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
)

// EncodeEvent converts the event to a message body
func EncodeEvent(ev core.TransactionEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses a message body. Bodies without a kind or id are rejected.
func DecodeEvent(data []byte) (core.TransactionEvent, error) {
	var ev core.TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.TransactionEvent{}, err
	}
	switch ev.Kind {
	case core.EventCreated, core.EventUpdated, core.EventDeleted:
	default:
		return core.TransactionEvent{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.ID == "" {
		return core.TransactionEvent{}, fmt.Errorf("event without transaction id")
	}
	return ev, nil
}
