package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"cart-offer/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestOffer builds a valid offer for repository tests.
func newTestOffer(restaurantID int64, offerType model.OfferType, value int64, segments ...string) *model.Offer {
	return &model.Offer{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Type:         offerType,
		Value:        value,
		Segments:     segments,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// runOfferRepositoryContract exercises behaviour every OfferRepository must share.
func runOfferRepositoryContract(t *testing.T, newRepo func(t *testing.T) OfferRepository) {
	t.Run("Lookup on empty store returns empty slice", func(t *testing.T) {
		repo := newRepo(t)

		offers, err := repo.Lookup(context.Background(), 1, "p1")

		require.NoError(t, err)
		assert.NotNil(t, offers)
		assert.Empty(t, offers)
	})

	t.Run("Longest accepted segment round-trips", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		longest := strings.Repeat("é", model.MaxSegmentLength)
		require.NoError(t, repo.Put(ctx, newTestOffer(5, model.OfferTypeFlatPercent, 10, longest)))

		offers, err := repo.Lookup(ctx, 5, longest)
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, []string{longest}, offers[0].Segments)
	})

	t.Run("Put indexes offer under every segment", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		offer := newTestOffer(2, model.OfferTypeFlatAmount, 20, "p1", "p2")
		require.NoError(t, repo.Put(ctx, offer))

		for _, segment := range []string{"p1", "p2"} {
			offers, err := repo.Lookup(ctx, 2, segment)
			require.NoError(t, err)
			require.Len(t, offers, 1, "segment %s", segment)

			got := offers[0]
			assert.Equal(t, offer.ID, got.ID)
			assert.Equal(t, int64(2), got.RestaurantID)
			assert.Equal(t, model.OfferTypeFlatAmount, got.Type)
			assert.Equal(t, int64(20), got.Value)
			assert.Equal(t, []string{"p1", "p2"}, got.Segments)
			assert.WithinDuration(t, offer.CreatedAt, got.CreatedAt, time.Millisecond)
		}
	})

	t.Run("Lookup is scoped by restaurant and segment", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Put(ctx, newTestOffer(1, model.OfferTypeFlatAmount, 10, "p1")))

		offers, err := repo.Lookup(ctx, 999, "p1")
		require.NoError(t, err)
		assert.Empty(t, offers, "unknown restaurant")

		offers, err = repo.Lookup(ctx, 1, "p2")
		require.NoError(t, err)
		assert.Empty(t, offers, "segment without offers")
	})

	t.Run("Lookup preserves insertion order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first := newTestOffer(1, model.OfferTypeFlatAmount, 10, "p1")
		second := newTestOffer(1, model.OfferTypeFlatPercent, 10, "p1")
		third := newTestOffer(1, model.OfferTypeFlatAmount, 5, "p1", "p3")
		for _, o := range []*model.Offer{first, second, third} {
			require.NoError(t, repo.Put(ctx, o))
		}

		offers, err := repo.Lookup(ctx, 1, "p1")
		require.NoError(t, err)
		require.Len(t, offers, 3)
		assert.Equal(t, first.ID, offers[0].ID)
		assert.Equal(t, second.ID, offers[1].ID)
		assert.Equal(t, third.ID, offers[2].ID)
	})
}
