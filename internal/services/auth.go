package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sejmwatch/sejmwatch-backend/internal/data/pgerr"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos"
	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/apierr"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/envutil"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	// ParseAccessToken validates a bearer token and returns the user id.
	ParseAccessToken(tokenString string) (uuid.UUID, error)
}

type authService struct {
	db         *gorm.DB
	log        *logger.Logger
	users      repos.UserRepo
	tokens     repos.UserTokenRepo
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, users repos.UserRepo, tokens repos.UserTokenRepo) (AuthService, error) {
	secret := strings.TrimSpace(envutil.String("JWT_SECRET", ""))
	if secret == "" {
		return nil, fmt.Errorf("auth: missing JWT_SECRET")
	}
	return &authService{
		db:         db,
		log:        log.With("service", "AuthService"),
		users:      users,
		tokens:     tokens,
		secret:     []byte(secret),
		accessTTL:  envutil.Seconds("JWT_ACCESS_TTL_SECONDS", 15*time.Minute),
		refreshTTL: envutil.Seconds("JWT_REFRESH_TTL_SECONDS", 30*24*time.Hour),
	}, nil
}

func (as *authService) Register(ctx context.Context, email, password string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.New(400, "invalid_email", fmt.Errorf("invalid email"))
	}
	if len(password) < 8 {
		return nil, apierr.New(400, "weak_password", fmt.Errorf("password must be at least 8 characters"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &types.User{Email: email, Password: string(hash)}
	if _, err := as.users.Create(dbctx.Context{Ctx: ctx}, []*types.User{user}); err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, apierr.New(409, "email_taken", fmt.Errorf("email already registered"))
		}
		return nil, err
	}
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := as.users.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", apierr.New(401, "invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", apierr.New(401, "invalid_credentials", fmt.Errorf("invalid email or password"))
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.tokens.DeleteExpired(dbc, time.Now()); err != nil {
			return err
		}
		accessToken, err = as.signAccessToken(user.ID)
		if err != nil {
			return err
		}
		refreshToken = uuid.New().String()
		_, err = as.tokens.Create(dbc, []*types.UserToken{{
			UserID:       user.ID,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}})
		return err
	}); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", "", apierr.New(401, "missing_refresh_token", fmt.Errorf("missing refresh token"))
	}

	var accessToken, newRefresh string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := as.tokens.GetByRefreshToken(dbc, refreshToken)
		if err != nil {
			return err
		}
		if row == nil || row.ExpiresAt.Before(time.Now()) {
			return apierr.New(401, "invalid_refresh_token", fmt.Errorf("refresh token expired or unknown"))
		}
		if err := as.tokens.DeleteByRefreshToken(dbc, refreshToken); err != nil {
			return err
		}
		accessToken, err = as.signAccessToken(row.UserID)
		if err != nil {
			return err
		}
		newRefresh = uuid.New().String()
		_, err = as.tokens.Create(dbc, []*types.UserToken{{
			UserID:       row.UserID,
			RefreshToken: newRefresh,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}})
		return err
	}); err != nil {
		return "", "", err
	}
	return accessToken, newRefresh, nil
}

func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return as.tokens.DeleteByRefreshToken(dbctx.Context{Ctx: ctx}, refreshToken)
}

func (as *authService) signAccessToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		Issuer:    "sejmwatch",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
}

func (as *authService) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apierr.New(401, "invalid_token", fmt.Errorf("invalid access token"))
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, apierr.New(401, "invalid_token", fmt.Errorf("invalid token claims"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apierr.New(401, "invalid_token", fmt.Errorf("invalid token subject"))
	}
	return userID, nil
}
