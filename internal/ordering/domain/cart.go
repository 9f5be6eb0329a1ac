package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Food is one menu entry the customer can add to the cart.
type Food struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

// CartLine is one food plus the requested quantity. A cart holds at most
// one line per food id; repeated adds merge into the existing line.
type CartLine struct {
	Food     Food `json:"food"`
	Quantity int  `json:"quantity"`
}

// Subtotal is price × quantity for this line, unrounded.
func (l CartLine) Subtotal() float64 {
	return l.Food.Price * float64(l.Quantity)
}

// Cart is the line-item collection of an in-progress basket. The zero
// value is a valid empty cart.
type Cart []CartLine

// Total sums all line subtotals. No intermediate rounding; rounding to the
// currency's minor unit happens at formatting time only.
func (c Cart) Total() float64 {
	var total float64
	for _, line := range c {
		total += line.Subtotal()
	}
	return total
}

// Find returns the index of the line for foodID, or false if no line
// exists for it.
func (c Cart) Find(foodID int) (int, bool) {
	for i, line := range c {
		if line.Food.ID == foodID {
			return i, true
		}
	}
	return 0, false
}

// Clone returns an independent copy of the cart. Mutating the clone never
// affects the original; this is what makes the store's copy-on-write
// discipline safe.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// eurPrinter localises numbers for the German storefront, matching the web
// frontend's Intl.NumberFormat("de-DE", {currency: "EUR"}).
var eurPrinter = message.NewPrinter(language.German)

// FormatEUR renders a monetary amount as the storefront displays it,
// e.g. 5 → "5,00 €". This is the only place amounts are rounded.
func FormatEUR(amount float64) string {
	return eurPrinter.Sprintf("%.2f €", amount)
}
