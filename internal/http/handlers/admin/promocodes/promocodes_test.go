package promocodes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreatePromoCode(ctx context.Context, req models.DummyPromoCode) (*models.PromoCode, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*models.PromoCode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) UpdatePromoCode(ctx context.Context, id int, req models.DummyPromoCode) (*models.PromoCode, error) {
	args := m.Called(ctx, id, req)
	if res := args.Get(0); res != nil {
		return res.(*models.PromoCode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) ListPromoCodes(ctx context.Context, filter models.PromoCodeFilter) ([]*models.PromoCode, error) {
	args := m.Called(ctx, filter)
	if res := args.Get(0); res != nil {
		return res.([]*models.PromoCode), args.Error(1)
	}
	return nil, args.Error(1)
}

func newRouter(svc Service) http.Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Get("/promocodes", h.List)
	r.Post("/promocodes", h.Create)
	r.Put("/promocodes/{id}", h.Update)
	return r
}

func TestPromoCodesHandler(t *testing.T) {
	active := true
	premium := models.TierPremium

	tests := []struct {
		name           string
		method         string
		url            string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "список активных промокодов на premium",
			method: http.MethodGet,
			url:    "/promocodes?active=true&grants_tier=premium&search=spring",
			setupMock: func(m *MockService) {
				m.On("ListPromoCodes", mock.Anything, models.PromoCodeFilter{IsActive: &active, GrantsTier: &premium, Search: "spring"}).
					Return([]*models.PromoCode{{ID: 1, Code: "SPRING"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"code":"SPRING"`,
		},
		{
			name:           "некорректный уровень в фильтре",
			method:         http.MethodGet,
			url:            "/promocodes?grants_tier=gold",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:   "создание промокода",
			method: http.MethodPost,
			url:    "/promocodes",
			body:   `{"code":"TRIAL7","description":"Неделя premium","grants_free_days":7,"grants_tier":"premium"}`,
			setupMock: func(m *MockService) {
				m.On("CreatePromoCode", mock.Anything, mock.MatchedBy(func(req models.DummyPromoCode) bool {
					return req.Code == "TRIAL7" && req.GrantsFreeDays == 7 && req.GrantsTier == "premium"
				})).Return(&models.PromoCode{ID: 5, Code: "TRIAL7"}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":5`,
		},
		{
			name:   "промокод уже существует",
			method: http.MethodPost,
			url:    "/promocodes",
			body:   `{"code":"TRIAL7","description":"dup"}`,
			setupMock: func(m *MockService) {
				m.On("CreatePromoCode", mock.Anything, mock.Anything).Return(nil, storage.ErrPromoExists)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"promo code already exists"`,
		},
		{
			name:           "скидка больше 100 процентов",
			method:         http.MethodPost,
			url:            "/promocodes",
			body:           `{"code":"BIG","description":"too much","discount_percent":150}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"field DiscountPercent must be at most 100"`,
		},
		{
			name:   "изменение промокода",
			method: http.MethodPut,
			url:    "/promocodes/5",
			body:   `{"code":"TRIAL7","description":"Две недели","grants_free_days":14,"grants_tier":"premium"}`,
			setupMock: func(m *MockService) {
				m.On("UpdatePromoCode", mock.Anything, 5, mock.Anything).
					Return(&models.PromoCode{ID: 5, Code: "TRIAL7", GrantsFreeDays: 14}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"grants_free_days":14`,
		},
		{
			name:   "изменение несуществующего промокода",
			method: http.MethodPut,
			url:    "/promocodes/99",
			body:   `{"code":"NONE","description":"none"}`,
			setupMock: func(m *MockService) {
				m.On("UpdatePromoCode", mock.Anything, 99, mock.Anything).Return(nil, storage.ErrPromoNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"promo code not found"`,
		},
		{
			name:           "некорректный id",
			method:         http.MethodPut,
			url:            "/promocodes/abc",
			body:           `{}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid promo code id"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(tt.method, tt.url, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			newRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
