// Package persistence holds the durable cart snapshot adapters.
package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/your-org/cart-sync/internal/domain/cart"
)

func encode(c cart.Cart) ([]byte, error) {
	if c == nil {
		c = cart.Cart{}
	}
	return json.Marshal(c)
}

// decode parses a stored snapshot. Lines that no longer pass sanitization are dropped.
func decode(data []byte) (cart.Cart, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return cart.Cart{}, nil
	}

	var raw []cart.RawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return cart.Cart{}, fmt.Errorf("%w: %w", cart.ErrCorruptState, err)
	}
	return cart.Sanitize(raw), nil
}
