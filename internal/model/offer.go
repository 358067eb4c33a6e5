package model

import (
	"time"

	"github.com/google/uuid"
)

// OfferType identifies how an offer discounts a cart.
type OfferType string

const (
	// OfferTypeFlatAmount subtracts a fixed amount from the cart value.
	OfferTypeFlatAmount OfferType = "FLATX"
	// OfferTypeFlatPercent subtracts a percentage of the cart value.
	OfferTypeFlatPercent OfferType = "FLATX%"
)

// Valid reports whether t is one of the supported offer types.
func (t OfferType) Valid() bool {
	return t == OfferTypeFlatAmount || t == OfferTypeFlatPercent
}

// Offer represents a discount rule for a restaurant, targeted at customer segments.
type Offer struct {
	ID           uuid.UUID `json:"id" db:"id"`
	RestaurantID int64     `json:"restaurant_id" db:"restaurant_id"`
	Type         OfferType `json:"offer_type" db:"offer_type"`
	Value        int64     `json:"offer_value" db:"offer_value"`
	Segments     []string  `json:"customer_segment"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Discount returns the amount the offer takes off cartValue.
// The result never exceeds cartValue.
func (o *Offer) Discount(cartValue int64) int64 {
	if cartValue <= 0 {
		return 0
	}

	var discount int64
	switch o.Type {
	case OfferTypeFlatAmount:
		discount = o.Value
	case OfferTypeFlatPercent:
		percent := o.Value
		if percent > 100 {
			percent = 100
		}
		// floor(cart*percent/100) split so the product cannot overflow.
		discount = cartValue/100*percent + cartValue%100*percent/100
	}

	if discount > cartValue {
		return cartValue
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// Apply returns cartValue after the offer's discount.
func (o *Offer) Apply(cartValue int64) int64 {
	return cartValue - o.Discount(cartValue)
}

// MaxSegmentLength is the longest customer segment, in characters, any store accepts.
const MaxSegmentLength = 64

// OfferRequest represents the request payload for creating an offer.
type OfferRequest struct {
	RestaurantID int64    `json:"restaurant_id"`
	OfferType    string   `json:"offer_type"`
	OfferValue   int64    `json:"offer_value"`
	Segments     []string `json:"customer_segment"`
}

// OfferResponse acknowledges a stored offer.
type OfferResponse struct {
	ResponseMsg string `json:"response_msg"`
}
