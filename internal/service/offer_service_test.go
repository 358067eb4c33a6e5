package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cart-offer/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// MockOfferRepository is a mock implementation of OfferRepository.
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) Put(ctx context.Context, offer *model.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) Lookup(ctx context.Context, restaurantID int64, segment string) ([]model.Offer, error) {
	args := m.Called(ctx, restaurantID, segment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

// MockResolver is a mock implementation of segment.Resolver.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, userID int64) (string, bool, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func offer(offerType model.OfferType, value int64) model.Offer {
	return model.Offer{
		ID:           uuid.New(),
		RestaurantID: 1,
		Type:         offerType,
		Value:        value,
		Segments:     []string{"p1"},
	}
}

func TestOfferService_CreateOffer_Success(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := NewOfferService(mockRepo, new(MockResolver), zerolog.Nop()).(*offerService)

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	req := &model.OfferRequest{
		RestaurantID: 1,
		OfferType:    "FLATX",
		OfferValue:   10,
		Segments:     []string{" p1 ", "p2", "", "p1"},
	}

	mockRepo.On("Put", mock.Anything, mock.MatchedBy(func(o *model.Offer) bool {
		return o.RestaurantID == 1 &&
			o.Type == model.OfferTypeFlatAmount &&
			o.Value == 10 &&
			assert.ObjectsAreEqual([]string{"p1", "p2"}, o.Segments)
	})).Return(nil)

	created, err := svc.CreateOffer(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, fixed, created.CreatedAt)
	assert.Equal(t, []string{"p1", "p2"}, created.Segments)
	mockRepo.AssertExpectations(t)
}

func TestOfferService_CreateOffer_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		req         *model.OfferRequest
		expectedErr error
	}{
		{
			name:        "Nil request",
			req:         nil,
			expectedErr: model.ErrInvalidRequest,
		},
		{
			name:        "Zero restaurant id",
			req:         &model.OfferRequest{RestaurantID: 0, OfferType: "FLATX", OfferValue: 10, Segments: []string{"p1"}},
			expectedErr: model.ErrInvalidRestaurant,
		},
		{
			name:        "Negative restaurant id",
			req:         &model.OfferRequest{RestaurantID: -4, OfferType: "FLATX", OfferValue: 10, Segments: []string{"p1"}},
			expectedErr: model.ErrInvalidRestaurant,
		},
		{
			name:        "Unknown offer type",
			req:         &model.OfferRequest{RestaurantID: 1, OfferType: "BOGO", OfferValue: 10, Segments: []string{"p1"}},
			expectedErr: model.ErrInvalidOfferType,
		},
		{
			name:        "Offer type is case sensitive",
			req:         &model.OfferRequest{RestaurantID: 1, OfferType: "flatx", OfferValue: 10, Segments: []string{"p1"}},
			expectedErr: model.ErrInvalidOfferType,
		},
		{
			name:        "Zero offer value",
			req:         &model.OfferRequest{RestaurantID: 1, OfferType: "FLATX%", OfferValue: 0, Segments: []string{"p1"}},
			expectedErr: model.ErrInvalidValue,
		},
		{
			name:        "No segments",
			req:         &model.OfferRequest{RestaurantID: 1, OfferType: "FLATX", OfferValue: 10},
			expectedErr: model.ErrInvalidSegments,
		},
		{
			name:        "Only blank segments",
			req:         &model.OfferRequest{RestaurantID: 1, OfferType: "FLATX", OfferValue: 10, Segments: []string{"", "  "}},
			expectedErr: model.ErrInvalidSegments,
		},
		{
			name:        "Segment longer than stores accept",
			req:         &model.OfferRequest{RestaurantID: 1, OfferType: "FLATX", OfferValue: 10, Segments: []string{"p1", strings.Repeat("s", model.MaxSegmentLength+1)}},
			expectedErr: model.ErrSegmentTooLong,
		},
		{
			name:        "First failing rule wins",
			req:         &model.OfferRequest{RestaurantID: 0, OfferType: "BOGO", OfferValue: -1},
			expectedErr: model.ErrInvalidRestaurant,
		},
		{
			name:        "Offer type checked before value",
			req:         &model.OfferRequest{RestaurantID: 1, OfferType: "BOGO", OfferValue: -1},
			expectedErr: model.ErrInvalidOfferType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockOfferRepository)
			svc := NewOfferService(mockRepo, new(MockResolver), zerolog.Nop())

			created, err := svc.CreateOffer(context.Background(), tt.req)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Nil(t, created)
			mockRepo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
		})
	}
}

func TestOfferService_CreateOffer_SegmentLengthCountsCharacters(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := NewOfferService(mockRepo, new(MockResolver), zerolog.Nop())

	longest := strings.Repeat("é", model.MaxSegmentLength)
	mockRepo.On("Put", mock.Anything, mock.AnythingOfType("*model.Offer")).Return(nil)

	created, err := svc.CreateOffer(context.Background(), &model.OfferRequest{
		RestaurantID: 1,
		OfferType:    "FLATX",
		OfferValue:   10,
		Segments:     []string{longest},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{longest}, created.Segments)
	mockRepo.AssertExpectations(t)
}

func TestOfferService_CreateOffer_RepositoryError(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := NewOfferService(mockRepo, new(MockResolver), zerolog.Nop())

	mockRepo.On("Put", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	created, err := svc.CreateOffer(context.Background(), &model.OfferRequest{
		RestaurantID: 1,
		OfferType:    "FLATX",
		OfferValue:   10,
		Segments:     []string{"p1"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create offer")
	assert.Nil(t, created)

	var domainErr *model.DomainError
	assert.False(t, errors.As(err, &domainErr))
	mockRepo.AssertExpectations(t)
}

func TestOfferService_ApplyOffer(t *testing.T) {
	tests := []struct {
		name      string
		cartValue int64
		offers    []model.Offer
		expected  int64
	}{
		{
			name:      "Flat amount",
			cartValue: 200,
			offers:    []model.Offer{offer(model.OfferTypeFlatAmount, 10)},
			expected:  190,
		},
		{
			name:      "Flat percent",
			cartValue: 200,
			offers:    []model.Offer{offer(model.OfferTypeFlatPercent, 10)},
			expected:  180,
		},
		{
			name:      "Flat amount on large cart",
			cartValue: 10000,
			offers:    []model.Offer{offer(model.OfferTypeFlatAmount, 10)},
			expected:  9990,
		},
		{
			name:      "Flat amount floors at zero",
			cartValue: 5,
			offers:    []model.Offer{offer(model.OfferTypeFlatAmount, 10)},
			expected:  0,
		},
		{
			name:      "Percent above hundred floors at zero",
			cartValue: 200,
			offers:    []model.Offer{offer(model.OfferTypeFlatPercent, 150)},
			expected:  0,
		},
		{
			name:      "Percent discount rounds down",
			cartValue: 199,
			offers:    []model.Offer{offer(model.OfferTypeFlatPercent, 10)},
			expected:  180,
		},
		{
			name:      "Zero cart stays zero",
			cartValue: 0,
			offers:    []model.Offer{offer(model.OfferTypeFlatAmount, 10)},
			expected:  0,
		},
		{
			name:      "Largest discount wins",
			cartValue: 200,
			offers: []model.Offer{
				offer(model.OfferTypeFlatAmount, 10),
				offer(model.OfferTypeFlatPercent, 10),
				offer(model.OfferTypeFlatAmount, 15),
			},
			expected: 180,
		},
		{
			name:      "Best offer depends on cart value",
			cartValue: 50,
			offers: []model.Offer{
				offer(model.OfferTypeFlatPercent, 10),
				offer(model.OfferTypeFlatAmount, 10),
			},
			expected: 40,
		},
		{
			name:      "Percent beats flat amount on huge cart",
			cartValue: 200000000000000000,
			offers: []model.Offer{
				offer(model.OfferTypeFlatAmount, 1000),
				offer(model.OfferTypeFlatPercent, 50),
			},
			expected: 100000000000000000,
		},
		{
			name:      "No offers leaves cart unchanged",
			cartValue: 200,
			offers:    []model.Offer{},
			expected:  200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockOfferRepository)
			mockResolver := new(MockResolver)
			svc := NewOfferService(mockRepo, mockResolver, zerolog.Nop())

			mockResolver.On("Resolve", mock.Anything, int64(1)).Return("p1", true, nil)
			mockRepo.On("Lookup", mock.Anything, int64(1), "p1").Return(tt.offers, nil)

			resp, err := svc.ApplyOffer(context.Background(), &model.ApplyOfferRequest{
				CartValue:    tt.cartValue,
				UserID:       1,
				RestaurantID: 1,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.CartValue)
			assert.GreaterOrEqual(t, resp.CartValue, int64(0))
			assert.LessOrEqual(t, resp.CartValue, tt.cartValue)
			mockRepo.AssertExpectations(t)
			mockResolver.AssertExpectations(t)
		})
	}
}

func TestOfferService_ApplyOffer_TieKeepsFirstOffer(t *testing.T) {
	first := offer(model.OfferTypeFlatAmount, 20)
	second := offer(model.OfferTypeFlatPercent, 10)

	best := selectBestOffer([]model.Offer{first, second}, 200)

	require.NotNil(t, best)
	assert.Equal(t, first.ID, best.ID)
	assert.Nil(t, selectBestOffer(nil, 200))
}

func TestOfferService_ApplyOffer_Unchanged(t *testing.T) {
	tests := []struct {
		name  string
		setup func(repo *MockOfferRepository, resolver *MockResolver)
	}{
		{
			name: "Resolver error",
			setup: func(repo *MockOfferRepository, resolver *MockResolver) {
				resolver.On("Resolve", mock.Anything, int64(7)).Return("", false, errors.New("timeout"))
			},
		},
		{
			name: "Unknown user",
			setup: func(repo *MockOfferRepository, resolver *MockResolver) {
				resolver.On("Resolve", mock.Anything, int64(7)).Return("", false, nil)
			},
		},
		{
			name: "Store error",
			setup: func(repo *MockOfferRepository, resolver *MockResolver) {
				resolver.On("Resolve", mock.Anything, int64(7)).Return("p1", true, nil)
				repo.On("Lookup", mock.Anything, int64(3), "p1").Return(nil, errors.New("db down"))
			},
		},
		{
			name: "Unknown restaurant",
			setup: func(repo *MockOfferRepository, resolver *MockResolver) {
				resolver.On("Resolve", mock.Anything, int64(7)).Return("p1", true, nil)
				repo.On("Lookup", mock.Anything, int64(3), "p1").Return([]model.Offer{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockOfferRepository)
			mockResolver := new(MockResolver)
			tt.setup(mockRepo, mockResolver)
			svc := NewOfferService(mockRepo, mockResolver, zerolog.Nop())

			resp, err := svc.ApplyOffer(context.Background(), &model.ApplyOfferRequest{
				CartValue:    200,
				UserID:       7,
				RestaurantID: 3,
			})

			require.NoError(t, err)
			assert.Equal(t, int64(200), resp.CartValue)
			mockRepo.AssertExpectations(t)
			mockResolver.AssertExpectations(t)
		})
	}
}

func TestOfferService_ApplyOffer_InvalidRequest(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	mockResolver := new(MockResolver)
	svc := NewOfferService(mockRepo, mockResolver, zerolog.Nop())

	resp, err := svc.ApplyOffer(context.Background(), &model.ApplyOfferRequest{CartValue: -1, UserID: 1, RestaurantID: 1})
	assert.ErrorIs(t, err, model.ErrInvalidCartValue)
	assert.Nil(t, resp)

	resp, err = svc.ApplyOffer(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
	assert.Nil(t, resp)

	mockResolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestOfferService_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	mockRepo := new(MockOfferRepository)
	mockResolver := new(MockResolver)
	svc := NewOfferService(mockRepo, mockResolver, zerolog.Nop()).(*offerService)
	svc.tracer = provider.Tracer(tracerName)

	mockResolver.On("Resolve", mock.Anything, int64(1)).Return("p1", true, nil)
	mockRepo.On("Lookup", mock.Anything, int64(1), "p1").Return([]model.Offer{offer(model.OfferTypeFlatAmount, 10)}, nil)

	_, err := svc.ApplyOffer(context.Background(), &model.ApplyOfferRequest{CartValue: 200, UserID: 1, RestaurantID: 1})
	require.NoError(t, err)

	_, err = svc.CreateOffer(context.Background(), &model.OfferRequest{RestaurantID: 0})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "OfferService.ApplyOffer", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "OfferService.CreateOffer", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
