package tutorial

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/clubhouse/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/services/profile"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) MarkTutorialSeen(ctx context.Context, userUID string, tutorial models.Tutorial) (*models.PlayerProfile, error) {
	args := m.Called(ctx, userUID, tutorial)
	if res := args.Get(0); res != nil {
		return res.(*models.PlayerProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestTutorialHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		tutorial       string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "известная подсказка",
			tutorial: "challenge",
			setupMock: func(m *MockService) {
				m.On("MarkTutorialSeen", mock.Anything, "uid-1", models.TutorialChallenge).
					Return(&models.PlayerProfile{UserUID: "uid-1", SeenChallengeTutorial: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"seen_challenge_tutorial":true`,
		},
		{
			name:     "неизвестная подсказка",
			tutorial: "dance",
			setupMock: func(m *MockService) {
				m.On("MarkTutorialSeen", mock.Anything, "uid-1", models.Tutorial("dance")).
					Return(nil, fmt.Errorf("profile.MarkTutorialSeen: %w", profile.ErrUnknownTutorial))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"unknown tutorial"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/tutorials/"+tt.tutorial, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("tutorial", tt.tutorial)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-1")
			req = req.WithContext(ctx)
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
