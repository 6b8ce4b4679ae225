package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteUnavailable means the remote read failed and the cart fell back to the cached snapshot.
	ErrRemoteUnavailable = errors.New("remote cart unavailable")
	ErrAddFailed         = errors.New("add to cart failed")
	ErrRemoveFailed      = errors.New("remove from cart failed")
	ErrUpdateFailed      = errors.New("update quantity failed")
	ErrConfirmFailed     = errors.New("confirm pickup failed")
	// ErrInsufficientStock always also matches ErrUpdateFailed.
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidProduct    = errors.New("product id is required")
	// ErrCorruptState is logged by stores when a snapshot cannot be decoded. It never reaches engine callers.
	ErrCorruptState = errors.New("persisted cart state is corrupt")

	// ErrStockExhausted is returned by RemoteClient implementations when the
	// remote rejects a quantity change for lack of inventory.
	ErrStockExhausted = errors.New("remote: insufficient stock")
)

func opError(kind error, itemID string, cause error) error {
	if itemID == "" {
		return fmt.Errorf("%w: %w", kind, cause)
	}
	return fmt.Errorf("%w (item %s): %w", kind, itemID, cause)
}

func stockError(itemID string, cause error) error {
	return fmt.Errorf("%w (item %s): %w: %w", ErrInsufficientStock, itemID, ErrUpdateFailed, cause)
}
