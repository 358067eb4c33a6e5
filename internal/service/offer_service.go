package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cart-offer/internal/model"
	"cart-offer/internal/repository"
	"cart-offer/internal/segment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cart-offer/internal/service"

// offerService implements OfferService.
type offerService struct {
	offerRepo repository.OfferRepository
	resolver  segment.Resolver
	tracer    trace.Tracer
	now       func() time.Time
	logger    zerolog.Logger
}

// NewOfferService creates a new offer service.
func NewOfferService(
	offerRepo repository.OfferRepository,
	resolver segment.Resolver,
	logger zerolog.Logger,
) OfferService {
	return &offerService{
		offerRepo: offerRepo,
		resolver:  resolver,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		logger:    logger.With().Str("service", "offer").Logger(),
	}
}

// CreateOffer validates the request and stores the resulting offer.
func (s *offerService) CreateOffer(ctx context.Context, req *model.OfferRequest) (*model.Offer, error) {
	ctx, span := s.tracer.Start(ctx, "OfferService.CreateOffer")
	defer span.End()

	segments, err := s.validateOfferRequest(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	offer := &model.Offer{
		ID:           uuid.New(),
		RestaurantID: req.RestaurantID,
		Type:         model.OfferType(req.OfferType),
		Value:        req.OfferValue,
		Segments:     segments,
		CreatedAt:    s.now().UTC(),
	}

	span.SetAttributes(
		attribute.String("offer.id", offer.ID.String()),
		attribute.Int64("offer.restaurant_id", offer.RestaurantID),
		attribute.String("offer.type", string(offer.Type)),
	)

	if err := s.offerRepo.Put(ctx, offer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store offer")
		s.logger.Error().Err(err).Str("offer_id", offer.ID.String()).Msg("failed to store offer")
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.logger.Info().
		Str("offer_id", offer.ID.String()).
		Int64("restaurant_id", offer.RestaurantID).
		Str("offer_type", string(offer.Type)).
		Int64("offer_value", offer.Value).
		Strs("segments", offer.Segments).
		Msg("offer created successfully")

	return offer, nil
}

// ApplyOffer returns the cart value after the best matching offer.
func (s *offerService) ApplyOffer(ctx context.Context, req *model.ApplyOfferRequest) (*model.ApplyOfferResponse, error) {
	ctx, span := s.tracer.Start(ctx, "OfferService.ApplyOffer")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, model.ErrInvalidRequest.Error())
		return nil, model.ErrInvalidRequest
	}

	if req.CartValue < 0 {
		span.SetStatus(codes.Error, model.ErrInvalidCartValue.Error())
		return nil, model.ErrInvalidCartValue
	}

	span.SetAttributes(
		attribute.Int64("cart.value", req.CartValue),
		attribute.Int64("cart.user_id", req.UserID),
		attribute.Int64("cart.restaurant_id", req.RestaurantID),
	)

	unchanged := &model.ApplyOfferResponse{CartValue: req.CartValue}
	log := s.logger.With().
		Int64("user_id", req.UserID).
		Int64("restaurant_id", req.RestaurantID).
		Logger()

	userSegment, ok, err := s.resolver.Resolve(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Msg("failed to resolve segment, leaving cart unchanged")
		return unchanged, nil
	}
	if !ok {
		log.Debug().Msg("user has no segment")
		return unchanged, nil
	}
	span.SetAttributes(attribute.String("cart.segment", userSegment))

	offers, err := s.offerRepo.Lookup(ctx, req.RestaurantID, userSegment)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("segment", userSegment).Msg("failed to look up offers, leaving cart unchanged")
		return unchanged, nil
	}

	best := selectBestOffer(offers, req.CartValue)
	if best == nil {
		log.Debug().Str("segment", userSegment).Msg("no offer for segment")
		return unchanged, nil
	}

	result := best.Apply(req.CartValue)
	span.SetAttributes(
		attribute.String("offer.id", best.ID.String()),
		attribute.Int64("cart.result", result),
	)

	log.Debug().
		Str("segment", userSegment).
		Str("offer_id", best.ID.String()).
		Int64("cart_value", req.CartValue).
		Int64("result", result).
		Msg("offer applied")

	return &model.ApplyOfferResponse{CartValue: result}, nil
}

// selectBestOffer picks the offer with the largest discount on cartValue.
// Ties keep the earliest offer. Returns nil when offers is empty.
func selectBestOffer(offers []model.Offer, cartValue int64) *model.Offer {
	var (
		best         *model.Offer
		bestDiscount int64 = -1
	)
	for i := range offers {
		if d := offers[i].Discount(cartValue); d > bestDiscount {
			best = &offers[i]
			bestDiscount = d
		}
	}
	return best
}

// validateOfferRequest checks the rules in order and returns the cleaned segments.
func (s *offerService) validateOfferRequest(req *model.OfferRequest) ([]string, error) {
	if req == nil {
		return nil, model.ErrInvalidRequest
	}

	if req.RestaurantID <= 0 {
		s.logger.Warn().Int64("restaurant_id", req.RestaurantID).Msg("invalid restaurant id")
		return nil, model.ErrInvalidRestaurant
	}

	if !model.OfferType(req.OfferType).Valid() {
		s.logger.Warn().Str("offer_type", req.OfferType).Msg("invalid offer type")
		return nil, model.ErrInvalidOfferType
	}

	if req.OfferValue <= 0 {
		s.logger.Warn().Int64("offer_value", req.OfferValue).Msg("invalid offer value")
		return nil, model.ErrInvalidValue
	}

	segments := normaliseSegments(req.Segments)
	if len(segments) == 0 {
		s.logger.Warn().Int("segment_count", len(req.Segments)).Msg("no usable customer segments")
		return nil, model.ErrInvalidSegments
	}

	for _, seg := range segments {
		if utf8.RuneCountInString(seg) > model.MaxSegmentLength {
			s.logger.Warn().Int("segment_length", utf8.RuneCountInString(seg)).Msg("customer segment too long")
			return nil, model.ErrSegmentTooLong
		}
	}

	return segments, nil
}

// normaliseSegments trims segments, drops blanks and removes duplicates, keeping first occurrence order.
func normaliseSegments(raw []string) []string {
	segments := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		segments = append(segments, s)
	}
	return segments
}
