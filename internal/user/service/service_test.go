package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"cleanserve/internal/auth"
	"cleanserve/internal/config"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	userdb "cleanserve/internal/user/db"
	user "cleanserve/internal/user/service"
)

type MockUserDB struct {
	mock.Mock
}

func (m *MockUserDB) CreateUser(u models.User) error {
	args := m.Called(u)
	return args.Error(0)
}

func (m *MockUserDB) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDB) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDB) UpdateUser(u models.User) error {
	args := m.Called(u)
	return args.Error(0)
}

type MockOTPStore struct {
	mock.Mock
}

func (m *MockOTPStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	args := m.Called(email, code, ttl)
	return args.Error(0)
}

func (m *MockOTPStore) VerifyOTP(ctx context.Context, email, code string) error {
	args := m.Called(email, code)
	return args.Error(0)
}

func (m *MockOTPStore) SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	args := m.Called(token, userID, ttl)
	return args.Error(0)
}

func (m *MockOTPStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		OTPTTL:        10 * time.Minute,
		ResetTokenTTL: 30 * time.Minute,
	}
}

func setupService() (*user.UserService, *MockUserDB, *MockOTPStore) {
	mockDB := new(MockUserDB)
	mockOTP := new(MockOTPStore)
	service := user.NewUserService(mockDB, mockOTP, testConfig(), logger.NewLogger())
	return service, mockDB, mockOTP
}

func hashOf(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash)
}

func TestRegisterCreatesUnverifiedCustomer(t *testing.T) {
	service, mockDB, mockOTP := setupService()

	mockDB.On("GetUserByEmail", "sara@example.com").Return(nil, userdb.ErrNotFound)
	mockDB.On("CreateUser", mock.MatchedBy(func(u models.User) bool {
		return u.Role == models.RoleCustomer &&
			!u.IsVerified &&
			u.Language == "ar" &&
			u.PasswordHash != "correct-horse-1"
	})).Return(nil)
	mockOTP.On("SaveOTP", "sara@example.com", mock.Anything, 10*time.Minute).Return(nil)

	result, err := service.Register(context.Background(), "Sara", "sara@example.com", "+966501234567", "correct-horse-1", "ar")

	assert.NoError(t, err)
	assert.NotEmpty(t, result.UserID)
	assert.Len(t, result.OTP, 6)
	mockDB.AssertExpectations(t)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	service, mockDB, _ := setupService()

	_, err := service.Register(context.Background(), "Sara", "sara@example.com", "", "short", "en")

	assert.ErrorIs(t, err, user.ErrWeakPassword)
	mockDB.AssertNotCalled(t, "CreateUser", mock.Anything)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service, mockDB, _ := setupService()

	mockDB.On("GetUserByEmail", "sara@example.com").Return(&models.User{ID: "u1"}, nil)

	_, err := service.Register(context.Background(), "Sara", "sara@example.com", "", "correct-horse-1", "en")

	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegisterDefaultsUnknownLanguageToEnglish(t *testing.T) {
	service, mockDB, mockOTP := setupService()

	mockDB.On("GetUserByEmail", "sara@example.com").Return(nil, userdb.ErrNotFound)
	mockDB.On("CreateUser", mock.MatchedBy(func(u models.User) bool {
		return u.Language == "en"
	})).Return(nil)
	mockOTP.On("SaveOTP", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := service.Register(context.Background(), "Sara", "sara@example.com", "", "correct-horse-1", "fr")

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestVerifyOTPMarksVerifiedAndIssuesToken(t *testing.T) {
	service, mockDB, mockOTP := setupService()

	stored := &models.User{ID: "u1", Email: "sara@example.com", Role: models.RoleCustomer, Language: "ar"}
	mockOTP.On("VerifyOTP", "sara@example.com", "123456").Return(nil)
	mockDB.On("GetUserByEmail", "sara@example.com").Return(stored, nil)
	mockDB.On("UpdateUser", mock.MatchedBy(func(u models.User) bool {
		return u.IsVerified
	})).Return(nil)

	token, u, err := service.VerifyOTP(context.Background(), "sara@example.com", "123456")

	assert.NoError(t, err)
	assert.True(t, u.IsVerified)

	claims, err := auth.VerifyToken("test-secret", token)
	assert.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "ar", claims.Language)
}

func TestVerifyOTPRejectsWrongCode(t *testing.T) {
	service, mockDB, mockOTP := setupService()

	mockOTP.On("VerifyOTP", "sara@example.com", "000000").Return(auth.ErrCodeNotFound)

	_, _, err := service.VerifyOTP(context.Background(), "sara@example.com", "000000")

	assert.ErrorIs(t, err, user.ErrInvalidCode)
	mockDB.AssertNotCalled(t, "UpdateUser", mock.Anything)
}

func TestLogin(t *testing.T) {
	service, mockDB, _ := setupService()

	verified := &models.User{
		ID:           "u1",
		Email:        "sara@example.com",
		PasswordHash: hashOf("correct-horse-1"),
		Role:         models.RoleCustomer,
		IsVerified:   true,
	}
	mockDB.On("GetUserByEmail", "sara@example.com").Return(verified, nil)

	token, u, err := service.Login(context.Background(), "sara@example.com", "correct-horse-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "u1", u.ID)

	_, _, err = service.Login(context.Background(), "sara@example.com", "wrong-password")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestLoginUnknownEmailLooksLikeBadPassword(t *testing.T) {
	service, mockDB, _ := setupService()

	mockDB.On("GetUserByEmail", "ghost@example.com").Return(nil, userdb.ErrNotFound)

	_, _, err := service.Login(context.Background(), "ghost@example.com", "whatever-password")

	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestLoginRejectsUnverifiedAccount(t *testing.T) {
	service, mockDB, _ := setupService()

	unverified := &models.User{
		ID:           "u1",
		Email:        "sara@example.com",
		PasswordHash: hashOf("correct-horse-1"),
		IsVerified:   false,
	}
	mockDB.On("GetUserByEmail", "sara@example.com").Return(unverified, nil)

	_, _, err := service.Login(context.Background(), "sara@example.com", "correct-horse-1")

	assert.ErrorIs(t, err, user.ErrNotVerified)
}

func TestForgotPasswordHidesUnknownEmails(t *testing.T) {
	service, mockDB, mockOTP := setupService()

	mockDB.On("GetUserByEmail", "ghost@example.com").Return(nil, userdb.ErrNotFound)

	token, err := service.ForgotPassword(context.Background(), "ghost@example.com")

	assert.NoError(t, err)
	assert.Empty(t, token)
	mockOTP.AssertNotCalled(t, "SaveResetToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPasswordConsumesToken(t *testing.T) {
	service, mockDB, mockOTP := setupService()

	stored := &models.User{ID: "u1", PasswordHash: hashOf("old-password-1")}
	mockOTP.On("ConsumeResetToken", "reset-token").Return("u1", nil)
	mockDB.On("GetUserByID", "u1").Return(stored, nil)
	mockDB.On("UpdateUser", mock.MatchedBy(func(u models.User) bool {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("new-password-1")) == nil
	})).Return(nil)

	err := service.ResetPassword(context.Background(), "reset-token", "new-password-1")

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestChangePasswordChecksCurrent(t *testing.T) {
	service, mockDB, _ := setupService()

	stored := &models.User{ID: "u1", PasswordHash: hashOf("old-password-1")}
	mockDB.On("GetUserByID", "u1").Return(stored, nil)

	err := service.ChangePassword(context.Background(), "u1", "not-the-password", "new-password-1")

	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	mockDB.AssertNotCalled(t, "UpdateUser", mock.Anything)
}
