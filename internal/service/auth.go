package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"work-allocation/internal/apperr"
	"work-allocation/internal/models"
	"work-allocation/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
	defaultTokenTTL   = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Claims - содержимое токена координатора
type Claims struct {
	ManagerID string `json:"id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

type ManagerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResult struct {
	Token   string         `json:"token"`
	Manager ManagerSummary `json:"manager"`
}

type AuthService struct {
	store  *repository.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *logrus.Logger
}

func NewAuthService(store *repository.Store, secret string, opts ...Option) *AuthService {
	o := buildOptions(opts)
	return &AuthService{
		store:  store,
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		now:    o.now,
		logger: o.logger,
	}
}

// Register создает координатора и сразу выдает токен
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var fields []string
	if len(username) < minUsernameLength {
		fields = append(fields, "username")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		fields = append(fields, "email")
	}
	if len(password) < minPasswordLength {
		fields = append(fields, "password")
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("username (min 3), valid email and password (min 6) are required", fields...)
	}

	taken, err := s.store.Managers.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, storeErr("check manager", err)
	}
	if taken {
		s.logger.WithField("username", username).Warn("Registration with taken username or email")
		return nil, apperr.Conflict("Username or email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	manager := &models.Manager{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.store.Managers.Create(ctx, manager); err != nil {
		return nil, storeErr("create manager", err)
	}

	return s.issue(manager)
}

// Login проверяет пароль. Неизвестный логин и неверный пароль неразличимы.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if f := missing(field{"username", username}, field{"password", password}); len(f) > 0 {
		return nil, apperr.Validation("username and password are required", f...)
	}

	manager, err := s.store.Managers.GetByUsername(ctx, username)
	if err != nil {
		return nil, storeErr("get manager", err)
	}
	if manager == nil {
		s.logger.WithField("username", username).Warn("Login with unknown username")
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(manager.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("username", username).Warn("Login with wrong password")
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	return s.issue(manager)
}

// ParseToken проверяет подпись и срок действия токена
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (s *AuthService) issue(manager *models.Manager) (*AuthResult, error) {
	now := s.now()
	claims := Claims{
		ManagerID: manager.ID,
		Username:  manager.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   manager.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResult{
		Token: signed,
		Manager: ManagerSummary{
			ID:       manager.ID,
			Username: manager.Username,
			Email:    manager.Email,
		},
	}, nil
}
