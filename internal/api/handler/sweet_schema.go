package handler

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// jsonNumber accepts a JSON number or a numeric string. Anything else is
// recorded as present but invalid so the service can reject it with its own
// message instead of a generic bind failure.
type jsonNumber struct {
	ports.Numeric
}

func (n *jsonNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	n.Set = true

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		n.Quoted = true
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.Valid = true
	n.Value = v
	return nil
}

// --- Request types ---

type createSweetRequest struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Price    jsonNumber `json:"price"    swaggertype:"number"`
	Quantity jsonNumber `json:"quantity" swaggertype:"integer"`
}

type updateSweetRequest struct {
	Name     *string    `json:"name,omitempty"`
	Category *string    `json:"category,omitempty"`
	Price    jsonNumber `json:"price,omitempty"    swaggertype:"number"`
	Quantity jsonNumber `json:"quantity,omitempty" swaggertype:"integer"`
}

type purchaseRequest struct {
	Quantity jsonNumber `json:"quantity" swaggertype:"integer"`
}

type restockRequest struct {
	Amount jsonNumber `json:"amount" swaggertype:"integer"`
}

func invalidPayload() error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
}
