package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrCodeNotFound = errors.New("code not found or expired")

const (
	otpKeyPrefix   = "auth:otp:"
	resetKeyPrefix = "auth:reset:"
)

// OTPStore keeps short-lived verification codes and password-reset tokens
// in redis.
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func (s *OTPStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKeyPrefix+email, code, ttl).Err()
}

// VerifyOTP checks the code for an email and consumes it on success.
func (s *OTPStore) VerifyOTP(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, otpKeyPrefix+email).Result()
	if err == redis.Nil {
		return ErrCodeNotFound
	}
	if err != nil {
		return err
	}
	if stored != code {
		return ErrCodeNotFound
	}
	return s.client.Del(ctx, otpKeyPrefix+email).Err()
}

func (s *OTPStore) SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, resetKeyPrefix+token, userID, ttl).Err()
}

// ConsumeResetToken resolves a reset token to a user id and deletes it.
func (s *OTPStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, resetKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", err
	}
	if err := s.client.Del(ctx, resetKeyPrefix+token).Err(); err != nil {
		return "", err
	}
	return userID, nil
}
