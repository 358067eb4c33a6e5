package repository

import (
	"context"
	"sync"

	"cart-offer/internal/model"

	"github.com/rs/zerolog"
)

// offerKey is the composite lookup key of the in-memory store.
type offerKey struct {
	restaurantID int64
	segment      string
}

// memoryOfferRepository keeps offers in an append-only arena with a
// composite-key index of arena positions. Index slices are in insertion order.
type memoryOfferRepository struct {
	mu     sync.RWMutex
	offers []model.Offer
	index  map[offerKey][]int
	logger zerolog.Logger
}

// NewMemoryOfferRepository creates an in-memory offer repository.
func NewMemoryOfferRepository(logger zerolog.Logger) OfferRepository {
	return &memoryOfferRepository{
		index:  make(map[offerKey][]int),
		logger: logger.With().Str("repository", "offer-memory").Logger(),
	}
}

// Put appends the offer to the arena and indexes it under each segment.
func (r *memoryOfferRepository) Put(_ context.Context, offer *model.Offer) error {
	stored := cloneOffer(*offer)

	r.mu.Lock()
	defer r.mu.Unlock()

	pos := len(r.offers)
	r.offers = append(r.offers, stored)

	seen := make(map[string]struct{}, len(stored.Segments))
	for _, segment := range stored.Segments {
		if _, dup := seen[segment]; dup {
			continue
		}
		seen[segment] = struct{}{}

		key := offerKey{restaurantID: stored.RestaurantID, segment: segment}
		r.index[key] = append(r.index[key], pos)
	}

	r.logger.Debug().
		Str("offer_id", stored.ID.String()).
		Int64("restaurant_id", stored.RestaurantID).
		Strs("segments", stored.Segments).
		Msg("offer stored")

	return nil
}

// Lookup returns copies of the offers indexed under (restaurantID, segment).
func (r *memoryOfferRepository) Lookup(_ context.Context, restaurantID int64, segment string) ([]model.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	positions := r.index[offerKey{restaurantID: restaurantID, segment: segment}]
	offers := make([]model.Offer, 0, len(positions))
	for _, pos := range positions {
		offers = append(offers, cloneOffer(r.offers[pos]))
	}

	return offers, nil
}

// cloneOffer copies an offer so callers cannot mutate stored segment slices.
func cloneOffer(o model.Offer) model.Offer {
	o.Segments = append([]string(nil), o.Segments...)
	return o
}
