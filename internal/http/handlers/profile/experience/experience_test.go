package experience

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/clubhouse/internal/entitlement"
	"github.com/magabrotheeeer/clubhouse/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/services/profile"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) AddExperience(ctx context.Context, userUID string, points int) (profile.ExperienceResult, error) {
	args := m.Called(ctx, userUID, points)
	return args.Get(0).(profile.ExperienceResult), args.Error(1)
}

func TestExperienceHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "повышение уровня",
			body: `{"points":150}`,
			setupMock: func(m *MockService) {
				m.On("AddExperience", mock.Anything, "uid-1", 150).Return(profile.ExperienceResult{
					Profile:   &models.PlayerProfile{UserUID: "uid-1", ExperiencePoints: 250, Level: 3},
					LeveledUp: true,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"leveled_up":true`,
		},
		{
			name: "отрицательный опыт",
			body: `{"points":-10}`,
			setupMock: func(m *MockService) {
				m.On("AddExperience", mock.Anything, "uid-1", -10).
					Return(profile.ExperienceResult{}, entitlement.ErrNegativeExperience)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"experience points must not be negative"`,
		},
		{
			name:           "слишком много опыта",
			body:           `{"points":9223372036854775807}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"field Points must be at most 100000"`,
		},
		{
			name: "переполнение опыта",
			body: `{"points":100000}`,
			setupMock: func(m *MockService) {
				m.On("AddExperience", mock.Anything, "uid-1", 100000).
					Return(profile.ExperienceResult{}, entitlement.ErrExperienceOverflow)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"experience points limit exceeded"`,
		},
		{
			name: "параллельное изменение",
			body: `{"points":5}`,
			setupMock: func(m *MockService) {
				m.On("AddExperience", mock.Anything, "uid-1", 5).
					Return(profile.ExperienceResult{}, profile.ErrConcurrentUpdate)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:           "points не передан",
			body:           `{}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"field Points is a required field"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"points":"many"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/experience", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
