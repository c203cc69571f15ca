package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shoplane-labs/push-dispatch/internal/config"
	"github.com/shoplane-labs/push-dispatch/internal/model"
	"github.com/shoplane-labs/push-dispatch/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account registration and login. Login doubles as
// the point where a device hands over its player id.
type UserService struct {
	store       storage.Store
	subs        *SubscriptionService
	authEnabled bool
	secret      []byte
	tokenTTL    time.Duration
}

// Claims represents the JWT payload issued on login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginResult carries the authenticated user and, when auth is enabled,
// a signed token.
type LoginResult struct {
	User  *model.UserView
	Token string
}

// NewUserService constructs UserService from config.
func NewUserService(store storage.Store, subs *SubscriptionService, cfg *config.Config) *UserService {
	ttl := cfg.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &UserService{
		store:       store,
		subs:        subs,
		authEnabled: cfg.Auth.Enabled,
		secret:      []byte(cfg.Auth.JWTSecret),
		tokenTTL:    ttl,
	}
}

// AuthEnabled reports whether token validation is enforced.
func (s *UserService) AuthEnabled() bool {
	return s != nil && s.authEnabled
}

// Register creates a user with a bcrypt password hash. Duplicate names
// are rejected.
func (s *UserService) Register(ctx context.Context, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return ValidationError("name and password are required")
	}
	if _, err := s.store.GetUser(ctx, name); err == nil {
		return ValidationError("user already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpsertUser(ctx, &model.User{
		Name:         name,
		PasswordHash: string(hash),
	})
}

// Login verifies credentials and, when the client supplies a player id,
// records it as the user's current push token.
func (s *UserService) Login(ctx context.Context, name, password, playerID string) (*LoginResult, error) {
	user, err := s.store.GetUser(ctx, strings.TrimSpace(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if strings.TrimSpace(playerID) != "" {
		if err := s.subs.SetPlayerID(ctx, user.Name, playerID); err != nil {
			return nil, err
		}
		// return the persisted record, not the pre-upsert copy
		user, err = s.store.GetUser(ctx, user.Name)
		if err != nil {
			return nil, err
		}
	}
	result := &LoginResult{User: user.View()}
	if s.authEnabled {
		token, err := s.issueToken(user.Name)
		if err != nil {
			return nil, err
		}
		result.Token = token
	}
	return result, nil
}

func (s *UserService) issueToken(username string) (string, error) {
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses a login token and returns its claims if valid.
func (s *UserService) ValidateToken(token string) (*Claims, error) {
	if !s.AuthEnabled() {
		return &Claims{Username: "anonymous"}, nil
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
