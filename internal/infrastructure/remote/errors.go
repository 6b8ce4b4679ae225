package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/your-org/cart-sync/internal/domain/cart"
)

// Markers the remote uses to reject a quantity for lack of inventory
const (
	CodeInsufficientStock    = "InsufficientStock"
	MessageInsufficientStock = "Stock insuficiente"
)

// StatusError is a non-2xx answer from the remote
type StatusError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: remote returned %d (%s): %s", e.Op, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.StatusCode, msg)
}

// Unwrap exposes cart.ErrStockExhausted for stock rejections
func (e *StatusError) Unwrap() error {
	if e.Code == CodeInsufficientStock || e.Message == MessageInsufficientStock {
		return cart.ErrStockExhausted
	}
	return nil
}

func newStatusError(op string, resp *http.Response) *StatusError {
	statusErr := &StatusError{Op: op, StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(data, &body); err == nil {
		statusErr.Code = body.Code
		statusErr.Message = body.Message
		if statusErr.Message == "" {
			statusErr.Message = body.Error
		}
	}
	return statusErr
}
