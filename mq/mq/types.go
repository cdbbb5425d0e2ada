package mq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"fueltrack/ledger"
)

type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
	ActionRecompute
	ActionCnt
)

var actionNames = [ActionCnt]string{"create", "update", "delete", "recompute"}

func (a Action) String() string {
	if a < 0 || a >= ActionCnt {
		return "unknown"
	}
	return actionNames[a]
}

// LedgerMessage announces a finished recompute pass. Tanks is the whole
// regenerated Tank Store.
type LedgerMessage struct {
	ID       uuid.UUID     `json:"id"`
	Action   Action        `json:"action"`
	RecordID int           `json:"record_id,omitempty"`
	Records  int           `json:"records"`
	Tanks    []ledger.Tank `json:"tanks"`
	Time     time.Time     `json:"time"`
}

func NewLedgerMessage(action Action, recordID, records int, tanks []ledger.Tank, now time.Time) LedgerMessage {
	return LedgerMessage{
		ID:       uuid.New(),
		Action:   action,
		RecordID: recordID,
		Records:  records,
		Tanks:    tanks,
		Time:     now,
	}
}

// RoutingKey is "ledger.<action>", used by brokers that route on keys.
func (m LedgerMessage) RoutingKey() string {
	return "ledger." + m.Action.String()
}

func Encode(msg LedgerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func Decode(body []byte) (LedgerMessage, error) {
	var msg LedgerMessage
	err := json.Unmarshal(body, &msg)
	return msg, err
}

type Mode string

const (
	ModeNone      Mode = "none"
	ModeGoChan    Mode = "go_chan"
	ModeRabbitMQ  Mode = "rabbitmq"
	ModeGCPPubSub Mode = "gcp_pub_sub"
)
