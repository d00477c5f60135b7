package services_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"storerating/internal/apperror"
	"storerating/internal/models"
	"storerating/internal/repositories"
	"storerating/internal/services"
	"storerating/pkg/logger"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDWithStores(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter repositories.UserFilter, page repositories.Page, sort repositories.Sorting) ([]models.User, int64, error) {
	args := m.Called(ctx, filter, page, sort)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Recent(ctx context.Context, n int) ([]models.User, error) {
	args := m.Called(ctx, n)
	return args.Get(0).([]models.User), args.Error(1)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	logger.InitWithWriter("test", io.Discard)
	os.Exit(m.Run())
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	in := services.RegisterInput{
		Name:     "Registered Example User Name",
		Email:    "test@example.com",
		Password: "Passw0rd!",
		Address:  "1 Test Lane",
	}

	mockRepo.On("GetByEmail", ctx, in.Email).Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleUser &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)) == nil
	})).Return(nil).Once()

	user, token, err := authService.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEmpty(t, token)
	mockRepo.AssertExpectations(t)

	// Email already registered
	mockRepo.On("GetByEmail", ctx, in.Email).Return(&models.User{ID: "1"}, nil).Once()
	_, _, err = authService.Register(ctx, in)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, "User with this email already exists", apperror.Message(err, ""))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	user := &models.User{
		ID:       "user-123",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		Role:     models.RoleStoreOwner,
	}

	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	got, token, err := authService.Login(ctx, user.Email, "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, "store_owner", claims["role"])
	assert.Equal(t, user.Email, claims["email"])
	mockRepo.AssertExpectations(t)

	// Wrong password
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	_, _, err = authService.Login(ctx, user.Email, "wrongpassword")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	// Unknown user gets the same answer
	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, notFound("user")).Once()
	_, _, err = authService.Login(ctx, "nobody@example.com", "Passw0rd!")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	assert.Equal(t, "Invalid credentials", apperror.Message(err, ""))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("OldPass1!"), bcrypt.MinCost)
	user := &models.User{ID: "user-123", Password: string(hashedPassword)}

	mockRepo.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	err := authService.UpdatePassword(ctx, user.ID, "wrong", "NewPass1!")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	mockRepo.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	mockRepo.On("UpdatePassword", ctx, user.ID, mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("NewPass1!")) == nil
	})).Return(nil).Once()
	require.NoError(t, authService.UpdatePassword(ctx, user.ID, "OldPass1!", "NewPass1!"))

	mockRepo.On("GetByID", ctx, "missing").Return(nil, notFound("user")).Once()
	err = authService.UpdatePassword(ctx, "missing", "OldPass1!", "NewPass1!")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, time.Hour)

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	principal, err := authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"role":    "admin",
		"email":   "admin@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, testJWTSecret))
	require.NoError(t, err)
	assert.Equal(t, "user-123", principal.UserID)
	assert.Equal(t, models.RoleAdmin, principal.Role)

	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorContains(t, err, "invalid token")

	_, err = authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, "another_secret"))
	assert.ErrorContains(t, err, "invalid token")

	_, err = authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"role":    "admin",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}, testJWTSecret))
	assert.ErrorContains(t, err, "invalid token")

	_, err = authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"role":    "superuser",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, testJWTSecret))
	assert.ErrorContains(t, err, "unknown role")
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	mockRepo.On("GetByEmail", ctx, "root@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleAdmin
	})).Return(nil).Once()
	created, err := authService.EnsureAdmin(ctx, "Platform Administrator", "root@example.com", "Adm1n!pass", "HQ")
	require.NoError(t, err)
	assert.True(t, created)

	mockRepo.On("GetByEmail", ctx, "root@example.com").Return(&models.User{ID: "1"}, nil).Once()
	created, err = authService.EnsureAdmin(ctx, "Platform Administrator", "root@example.com", "Adm1n!pass", "HQ")
	require.NoError(t, err)
	assert.False(t, created)
	mockRepo.AssertExpectations(t)
}
