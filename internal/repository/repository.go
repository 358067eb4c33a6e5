package repository

import (
	"context"

	"cart-offer/internal/model"
)

// OfferRepository defines the interface for offer storage.
type OfferRepository interface {
	// Put stores an offer under every one of its segments for its restaurant.
	// The offer is expected to be validated already.
	Put(ctx context.Context, offer *model.Offer) error

	// Lookup returns the offers registered for a restaurant and segment in
	// insertion order. It returns an empty slice when none match.
	Lookup(ctx context.Context, restaurantID int64, segment string) ([]model.Offer, error)
}
