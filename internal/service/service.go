package service

import (
	"context"

	"cart-offer/internal/model"
)

// OfferService defines operations for offer management and application.
type OfferService interface {
	// CreateOffer validates the request and stores the resulting offer.
	CreateOffer(ctx context.Context, req *model.OfferRequest) (*model.Offer, error)

	// ApplyOffer returns the cart value after the best offer for the user's
	// segment. Unresolvable users or restaurants leave the cart unchanged.
	ApplyOffer(ctx context.Context, req *model.ApplyOfferRequest) (*model.ApplyOfferResponse, error)
}
