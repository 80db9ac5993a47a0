package terminal

type EventType string

const (
	EventReload    EventType = "reload"
	EventFilter    EventType = "filter"
	EventScan      EventType = "scan"
	EventAdd       EventType = "add"
	EventUpdateQty EventType = "update_qty"
	EventRemove    EventType = "remove"
	EventClear     EventType = "clear"
	EventDiscount  EventType = "discount"
	EventTax       EventType = "tax"
	EventCustomer  EventType = "customer"
	EventPay       EventType = "pay"
	EventKey       EventType = "key"
)

// Event is one cashier interaction. Only the fields relevant to Type are read.
type Event struct {
	Type      EventType `json:"type" validate:"required,oneof=reload filter scan add update_qty remove clear discount tax customer pay key"`
	ProductID int64     `json:"product_id,omitempty"`
	Index     int       `json:"index,omitempty"`
	Value     string    `json:"value,omitempty"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Confirmed bool      `json:"confirmed,omitempty"`
	Key       string    `json:"key,omitempty"`
	Ctrl      bool      `json:"ctrl,omitempty"`
}

// Reply is the full re-render after an event plus its one-shot UI effects.
type Reply struct {
	View         View   `json:"view"`
	Notice       string `json:"notice,omitempty"`
	Confirm      string `json:"confirm,omitempty"`
	Navigate     string `json:"navigate,omitempty"`
	ClearBarcode bool   `json:"clear_barcode,omitempty"`

	// Submission is set whenever a sale actually went out to the backend.
	Submission *Submission `json:"-"`
	// Err is the raw outcome, for logging and status mapping. Notices already
	// carry everything the cashier needs to see.
	Err error `json:"-"`
}
