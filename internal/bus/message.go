package bus

import (
	"strconv"
	"time"

	"github.com/Ashfaaq98/case-board/internal/cases"
)

// CaseStream is the Redis stream that carries case change messages.
const CaseStream = "cases"

// Actions carried by CaseMessage.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CaseMessage describes one change to a case.
type CaseMessage struct {
	StreamID   string `json:"stream_id,omitempty" yaml:"stream_id,omitempty"`
	Action     string `json:"action" yaml:"action"`
	CaseID     int64  `json:"case_id" yaml:"case_id"`
	CaseNumber string `json:"case_number" yaml:"case_number"`
	Status     string `json:"status" yaml:"status"`
	Timestamp  int64  `json:"timestamp" yaml:"timestamp"`
}

// NewCaseMessage builds a message for c stamped with the current time.
func NewCaseMessage(action string, c cases.Case) CaseMessage {
	return CaseMessage{
		Action:     action,
		CaseID:     c.ID,
		CaseNumber: c.CaseNumber,
		Status:     string(c.Status),
		Timestamp:  time.Now().Unix(),
	}
}

func (m CaseMessage) values() map[string]interface{} {
	return map[string]interface{}{
		"action":      m.Action,
		"case_id":     m.CaseID,
		"case_number": m.CaseNumber,
		"status":      m.Status,
		"timestamp":   m.Timestamp,
	}
}

// caseMessageFromValues decodes stream entry fields. Unparseable numbers
// decode as zero.
func caseMessageFromValues(id string, values map[string]interface{}) CaseMessage {
	field := func(key string) string {
		if s, ok := values[key].(string); ok {
			return s
		}
		return ""
	}

	msg := CaseMessage{
		StreamID:   id,
		Action:     field("action"),
		CaseNumber: field("case_number"),
		Status:     field("status"),
	}
	if v, err := strconv.ParseInt(field("case_id"), 10, 64); err == nil {
		msg.CaseID = v
	}
	if v, err := strconv.ParseInt(field("timestamp"), 10, 64); err == nil {
		msg.Timestamp = v
	}
	return msg
}
