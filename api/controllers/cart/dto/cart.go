package cartdto

import "time"

// Cart is the cart view returned by every cart endpoint.
type Cart struct {
	Items      []CartItem `json:"items"`
	Total      string     `json:"total"`
	TotalCents int64      `json:"total_cents"`
	ItemCount  int        `json:"item_count"`
	Currency   string     `json:"currency"`
}

// CartItem is one line of the cart view.
type CartItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	ImageRef       string `json:"image_ref,omitempty"`
	UnitPrice      string `json:"unit_price"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotal      string `json:"line_total"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// CheckoutSnapshot is the read-only cart copy handed to the payment integration.
type CheckoutSnapshot struct {
	SessionID  string         `json:"session_id"`
	Lines      []CheckoutLine `json:"lines"`
	Total      string         `json:"total"`
	TotalCents int64          `json:"total_cents"`
	ItemCount  int            `json:"item_count"`
	Currency   string         `json:"currency"`
	CapturedAt time.Time      `json:"captured_at"`
}

type CheckoutLine struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}
