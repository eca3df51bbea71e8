package event

import "spendsense/internal/domain"

// Type names a feed event on the wire.
type Type string

const (
	EvRecordIngested Type = "record.ingested"
	EvBillDetected   Type = "bill.detected"
	EvBudgetExceeded Type = "budget.exceeded"
)

// Event is anything the services publish to the feed.
type Event interface {
	GetUID() string
	GetType() Type
	Payload() any
}

// BaseEvent carries the owner of the event.
type BaseEvent struct {
	UID string `json:"uid"`
}

func (e BaseEvent) GetUID() string { return e.UID }

// RecordIngestedEvent is emitted after an SMS record is stored.
type RecordIngestedEvent struct {
	BaseEvent
	Record domain.Record
}

func (e RecordIngestedEvent) GetType() Type { return EvRecordIngested }
func (e RecordIngestedEvent) Payload() any  { return e.Record }

// BillDetectedEvent is emitted the first time a bill is stored.
type BillDetectedEvent struct {
	BaseEvent
	Bill domain.Bill
}

func (e BillDetectedEvent) GetType() Type { return EvBillDetected }
func (e BillDetectedEvent) Payload() any  { return e.Bill }

// BudgetExceededEvent is emitted when a budget's window spend passes its cap.
type BudgetExceededEvent struct {
	BaseEvent
	Status domain.BudgetStatus
}

func (e BudgetExceededEvent) GetType() Type { return EvBudgetExceeded }
func (e BudgetExceededEvent) Payload() any  { return e.Status }

// Envelope is the JSON frame sent to feed subscribers.
type Envelope struct {
	Seq  uint64 `json:"seq"`
	Ts   int64  `json:"ts"` // Unix seconds
	Type Type   `json:"type"`
	UID  string `json:"uid"`
	Data any    `json:"data"`
}

// Wrap builds the envelope for ev.
func Wrap(seq uint64, ts int64, ev Event) Envelope {
	return Envelope{
		Seq:  seq,
		Ts:   ts,
		Type: ev.GetType(),
		UID:  ev.GetUID(),
		Data: ev.Payload(),
	}
}
