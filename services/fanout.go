package services

// Event names pushed to connected clients.
const (
	EventNewBid         = "newBid"
	EventReceiveMessage = "receiveMessage"
)

// NewBidEvent is broadcast to a deal's room when a bid lands.
type NewBidEvent struct {
	BuyerID      uint    `json:"buyerId"`
	OfferedPrice float64 `json:"offeredPrice"`
}

// Notifier delivers best-effort real-time events. Persisted state is the
// source of truth; a failed or dropped publish never fails the operation
// that triggered it.
type Notifier interface {
	// PublishToRoom broadcasts to everyone currently viewing the deal.
	PublishToRoom(dealID uint, event string, payload interface{})
	// PublishToUser broadcasts to a single user's personal channel,
	// whatever deal they are looking at.
	PublishToUser(userID uint, event string, payload interface{})
}

// NopNotifier discards every event. Used in tests and as a safe default.
type NopNotifier struct{}

func (NopNotifier) PublishToRoom(uint, string, interface{}) {}
func (NopNotifier) PublishToUser(uint, string, interface{}) {}
