package cart

import "context"

// RemoteClient issues cart operations against the authoritative remote store.
// Implementations enforce their own request timeout.
type RemoteClient interface {
	Fetch(ctx context.Context) ([]RawItem, error)
	Add(ctx context.Context, productID string) ([]RawItem, error)
	Remove(ctx context.Context, itemID string) error
	UpdateQuantity(ctx context.Context, itemID string, quantity int) error
	ConfirmPickup(ctx context.Context, itemID string) error
}

// Store keeps one durable cart snapshot. Load never fails: a missing or
// unreadable snapshot yields an empty Cart.
type Store interface {
	Save(ctx context.Context, c Cart) error
	Load(ctx context.Context) Cart
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a user-facing message
type Notification struct {
	Title    string
	Message  string
	Severity Severity
}

// Notifier surfaces notifications to the user
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
