package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/clubhouse/internal/lib/jwt"
	"github.com/magabrotheeeer/clubhouse/internal/lib/password"
	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/services/auth"
	"github.com/magabrotheeeer/clubhouse/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User, profile models.PlayerProfile) (string, error) {
	args := m.Called(ctx, user, profile)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(username, role, userUID string) (string, error) {
	args := m.Called(username, role, userUID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

type fixedClock struct{ today time.Time }

func (c fixedClock) Today() time.Time { return c.today }

var today = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(r *UserRepoMock)
		wantUserUID string
		wantErr     error
	}{
		{
			name: "successful registration creates the profile too",
			setupMocks: func(r *UserRepoMock) {
				r.On("RegisterUser", mock.Anything,
					mock.MatchedBy(func(user models.User) bool {
						return user.Email == "test@example.com" &&
							user.Username == "testuser" &&
							user.PasswordHash != "" &&
							user.PasswordHash != "password123" &&
							user.Role == models.RoleUser &&
							user.UUID != ""
					}),
					mock.MatchedBy(func(p models.PlayerProfile) bool {
						return p.SubscriptionTier == models.TierFree &&
							p.Level == 1 &&
							p.GamesPlayedToday == 0 &&
							p.LastGameReset.Equal(today)
					}),
				).Return("some-uuid-string", nil).Once()
			},
			wantUserUID: "some-uuid-string",
		},
		{
			name: "duplicate user",
			setupMocks: func(r *UserRepoMock) {
				r.On("RegisterUser", mock.Anything, mock.Anything, mock.Anything).
					Return("", storage.ErrUserExists).Once()
			},
			wantErr: storage.ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := auth.NewAuthService(repo, new(JwtMakerMock), fixedClock{today})

			tt.setupMocks(repo)

			got, err := svc.Register(context.Background(), "test@example.com", "testuser", "password123")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUserUID, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	repo := new(UserRepoMock)
	svc := auth.NewAuthService(repo, new(JwtMakerMock), fixedClock{today})

	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.Register(context.Background(), "a@b.c", "user", string(long))
	assert.ErrorIs(t, err, password.ErrTooLong)
	repo.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := password.GetHash("correctpassword")
	require.NoError(t, err)
	user := &models.User{UUID: "uid-1", Username: "testuser", PasswordHash: hashed, Role: models.RoleAdmin}

	tests := []struct {
		name       string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "успешный вход",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
				j.On("GenerateToken", "testuser", models.RoleAdmin, "uid-1").Return("token-123", nil).Once()
			},
			wantToken: "token-123",
		},
		{
			name:     "неверный пароль",
			password: "wrong",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "пользователь не найден",
			password: "whatever",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(nil, storage.ErrUserNotFound).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "ошибка генерации токена",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
				j.On("GenerateToken", "testuser", models.RoleAdmin, "uid-1").Return("", errors.New("sign failed")).Once()
			},
			wantErr: errors.New("sign failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := auth.NewAuthService(repo, jwtMock, fixedClock{today})
			tt.setupMocks(repo, jwtMock)

			token, role, err := svc.Login(context.Background(), "testuser", tt.password)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, auth.ErrInvalidCredentials) {
					assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, models.RoleAdmin, role)
			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	jwtMock := new(JwtMakerMock)
	svc := auth.NewAuthService(new(UserRepoMock), jwtMock, fixedClock{today})

	jwtMock.On("ParseToken", "good").Return(&customjwt.CustomClaims{
		Username: "alice", Role: models.RoleUser, UserUID: "uid-9",
	}, nil).Once()
	jwtMock.On("ParseToken", "bad").Return(nil, customjwt.ErrInvalidToken).Once()

	user, err := svc.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "uid-9", user.UUID)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.ValidateToken(context.Background(), "bad")
	assert.ErrorIs(t, err, customjwt.ErrInvalidToken)
}
