package relay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventType identifies a push-channel event.
type EventType int

const (
	// EventCreated carries a full new record.
	EventCreated EventType = iota
	// EventUpdated carries a full replacement record.
	EventUpdated
	// EventDeleted carries only the deleted id.
	EventDeleted
	// EventResync signals that the line could not be parsed and the
	// consumer must refetch the authoritative settings list.
	EventResync
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	case EventResync:
		return "resync"
	default:
		return "unknown"
	}
}

// Event is one reconciliation event delivered by the push channel.
type Event struct {
	Type EventType
	ID   int64
	Link *CopyLink
}

// Line-oriented event prefixes used by the relay push channel.
const (
	prefixCreated = "settings_created:"
	prefixUpdated = "settings_updated:"
	prefixDeleted = "settings_deleted:"
)

// ParseEvent decodes one push-channel line. Any line that does not match
// a known prefix, or whose payload does not decode, returns an error; the
// caller is expected to fall back to a full refetch rather than guess.
func ParseEvent(line string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")

	switch {
	case strings.HasPrefix(line, prefixCreated):
		return parseRecordEvent(EventCreated, strings.TrimPrefix(line, prefixCreated))

	case strings.HasPrefix(line, prefixUpdated):
		return parseRecordEvent(EventUpdated, strings.TrimPrefix(line, prefixUpdated))

	case strings.HasPrefix(line, prefixDeleted):
		raw := strings.TrimSpace(strings.TrimPrefix(line, prefixDeleted))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Event{}, fmt.Errorf("malformed deleted event %q: %w", raw, err)
		}
		return Event{Type: EventDeleted, ID: id}, nil

	default:
		return Event{}, fmt.Errorf("unrecognized push line %q", truncate(line, 64))
	}
}

func parseRecordEvent(typ EventType, payload string) (Event, error) {
	var link CopyLink
	if err := json.Unmarshal([]byte(payload), &link); err != nil {
		return Event{}, fmt.Errorf("malformed %s payload: %w", typ, err)
	}
	if link.ID == 0 {
		return Event{}, fmt.Errorf("%s payload missing id", typ)
	}
	return Event{Type: typ, ID: link.ID, Link: &link}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
