package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/clubhouse/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		setupMock      func(*AuthServiceMock)
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:       "valid token",
			authHeader: "Bearer good",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "good").
					Return(&models.User{UUID: "uid-1", Username: "ann", Role: models.RoleUser}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "missing header",
			authHeader:     "",
			setupMock:      func(*AuthServiceMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			authHeader:     "Basic abc",
			setupMock:      func(*AuthServiceMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "bad").Return(nil, errors.New("token expired")).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			tt.setupMock(authMock)

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				uid, ok := middlewarectx.UserUIDFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "uid-1", uid)
				assert.Equal(t, "ann", r.Context().Value(middlewarectx.User))
				assert.Equal(t, models.RoleUser, r.Context().Value(middlewarectx.Role))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Equal(t, tt.wantCalled, called)
			authMock.AssertExpectations(t)
		})
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RequireRole(newNoopLogger(), models.RoleAdmin)(next)

	tests := []struct {
		name           string
		role           string
		expectedStatus int
		expectedBody   string
	}{
		{"admin passes", models.RoleAdmin, http.StatusOK, ""},
		{"user forbidden", models.RoleUser, http.StatusForbidden, `{"status":"Error","error":"access denied"}` + "\n"},
		{"no role", "", http.StatusUnauthorized, `{"status":"Error","error":"user identification missing"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/plans", nil)
			if tt.role != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Role, tt.role))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestUserUIDFrom_Missing(t *testing.T) {
	_, ok := middlewarectx.UserUIDFrom(context.Background())
	assert.False(t, ok)
}
