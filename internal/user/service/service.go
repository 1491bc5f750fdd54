package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cleanserve/internal/auth"
	"cleanserve/internal/config"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	userdb "cleanserve/internal/user/db"
	"cleanserve/internal/utils"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("account is not verified")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrUserNotFound       = errors.New("user not found")
)

type UserDBLayer interface {
	CreateUser(user models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user models.User) error
}

type OTPStore interface {
	SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error
	VerifyOTP(ctx context.Context, email, code string) error
	SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}

type UserService struct {
	DB     UserDBLayer
	OTP    OTPStore
	Cfg    config.AuthConfig
	Logger *logger.Logger
}

func NewUserService(db UserDBLayer, otp OTPStore, cfg config.AuthConfig, log *logger.Logger) *UserService {
	return &UserService{DB: db, OTP: otp, Cfg: cfg, Logger: log}
}

// RegisterResult carries what the register handler needs to respond with.
type RegisterResult struct {
	UserID string `json:"user_id"`
	// OTP is returned so the notification collaborator can deliver it.
	// It is never included in the HTTP response.
	OTP string `json:"-"`
}

func (s *UserService) Register(ctx context.Context, name, email, phone, password, language string) (*RegisterResult, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if _, err := s.DB.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, userdb.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if language != utils.LangArabic {
		language = utils.LangEnglish
	}

	now := time.Now()
	u := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		Language:     language,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.DB.CreateUser(u); err != nil {
		return nil, err
	}

	code := utils.GenerateOTP()
	if err := s.OTP.SaveOTP(ctx, email, code, s.Cfg.OTPTTL); err != nil {
		return nil, err
	}
	s.Logger.LogSecurity("OTP_ISSUED", fmt.Sprintf("verification code issued for %s", email))

	return &RegisterResult{UserID: u.ID, OTP: code}, nil
}

// VerifyOTP confirms the registration code and issues the first token.
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) (string, *models.User, error) {
	if err := s.OTP.VerifyOTP(ctx, email, code); err != nil {
		if errors.Is(err, auth.ErrCodeNotFound) {
			return "", nil, ErrInvalidCode
		}
		return "", nil, err
	}

	u, err := s.DB.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}

	u.IsVerified = true
	u.UpdatedAt = time.Now()
	if err := s.DB.UpdateUser(*u); err != nil {
		return "", nil, err
	}

	token, err := auth.IssueToken(s.Cfg.JWTSecret, u, s.Cfg.TokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.DB.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("bad password for %s", email))
		return "", nil, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return "", nil, ErrNotVerified
	}

	token, err := auth.IssueToken(s.Cfg.JWTSecret, u, s.Cfg.TokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// ForgotPassword issues a reset token when the account exists. The caller
// gets no signal either way, so the endpoint cannot be used to probe for
// registered emails.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.DB.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	token := uuid.New().String()
	if err := s.OTP.SaveResetToken(ctx, token, u.ID, s.Cfg.ResetTokenTTL); err != nil {
		return "", err
	}
	s.Logger.LogSecurity("RESET_ISSUED", fmt.Sprintf("reset token issued for %s", email))
	return token, nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	userID, err := s.OTP.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrCodeNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	u, err := s.DB.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now()
	return s.DB.UpdateUser(*u)
}

func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	u, err := s.DB.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now()
	return s.DB.UpdateUser(*u)
}
