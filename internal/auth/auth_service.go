package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"time"

	autherrors "github.com/julikubo/timesupa/internal/auth/errors"
	"github.com/julikubo/timesupa/internal/events"
	"github.com/julikubo/timesupa/internal/messaging/kafka"
	"github.com/julikubo/timesupa/internal/shared/contextutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	FaceLogin(ctx context.Context, req FaceLoginRequest) (TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (TokenResponse, error)
	GetMe(ctx context.Context, userID string) (UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (UserResponse, error)
	UpdatePassword(ctx context.Context, userID string, req UpdatePasswordRequest) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outboxRepo kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{db: db, repo: repo, outbox: outboxRepo, logger: l}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (TokenResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return TokenResponse{}, autherrors.ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return TokenResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return TokenResponse{}, err
	}

	user := &User{
		ID:          uuid.New(),
		Email:       req.Email,
		Password:    string(hashed),
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		Role:        "user",
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TokenResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
		s.logger.Error("register persist failed", zap.String("request_id", rid), zap.Error(err))
		return TokenResponse{}, err
	}

	if s.outbox != nil {
		event := events.UserRegisteredEvent{
			EventType:  "user_registered",
			RequestID:  rid,
			UserID:     user.ID.String(),
			Email:      user.Email,
			OccurredAt: time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return TokenResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "user",
			AggregateID:   user.ID.String(),
			EventType:     event.EventType,
			Topic:         events.UserRegisteredTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("user registered outbox persist failed",
				zap.String("request_id", rid), zap.Error(err))
			return TokenResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return TokenResponse{}, err
	}

	s.logger.Info("user registered",
		zap.String("request_id", rid),
		zap.String("user_id", user.ID.String()),
	)
	return s.issueTokens(*user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenResponse{}, autherrors.ErrInvalidCredentials
		}
		return TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return s.issueTokens(*user)
}

// FaceLogin maps a recognizer label to its enrolled account and issues a
// normal session. Matching happens client side; the server only trusts the
// label when the account explicitly opted in.
func (s *service) FaceLogin(ctx context.Context, req FaceLoginRequest) (TokenResponse, error) {
	user, err := s.repo.GetByFaceLabel(ctx, req.FaceLabel)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenResponse{}, autherrors.ErrFaceNotRecognized
		}
		return TokenResponse{}, err
	}

	if !user.FaceLoginEnabled {
		return TokenResponse{}, autherrors.ErrFaceLoginDisabled
	}

	s.logger.Info("user logged in via face label", zap.String("user_id", user.ID.String()))
	return s.issueTokens(*user)
}

func (s *service) RefreshToken(ctx context.Context, req RefreshTokenRequest) (TokenResponse, error) {
	claims, err := parseToken(req.RefreshToken)
	if err != nil {
		return TokenResponse{}, autherrors.ErrInvalidRefreshToken
	}
	if typ, _ := claims["token_type"].(string); typ != "refresh" {
		return TokenResponse{}, autherrors.ErrInvalidRefreshToken
	}

	rawID, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(rawID)
	if err != nil {
		return TokenResponse{}, autherrors.ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenResponse{}, autherrors.ErrInvalidRefreshToken
		}
		return TokenResponse{}, err
	}

	return s.issueTokens(*user)
}

func (s *service) GetMe(ctx context.Context, userID string) (UserResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return UserResponse{}, autherrors.ErrInvalidUserID
	}

	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, autherrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}
	return mapToUserResponse(*user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (UserResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return UserResponse{}, autherrors.ErrInvalidUserID
	}

	payload := map[string]any{}
	if req.FullName != nil {
		payload["full_name"] = *req.FullName
	}
	if req.CompanyName != nil {
		payload["company_name"] = *req.CompanyName
	}
	if req.FaceLabel != nil {
		payload["face_label"] = *req.FaceLabel
	}
	if req.FaceLoginEnabled != nil {
		payload["face_login_enabled"] = *req.FaceLoginEnabled
	}

	if len(payload) > 0 {
		payload["updated_at"] = time.Now().UTC()
		if err := s.repo.UpdateProfile(ctx, uid, payload); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return UserResponse{}, autherrors.ErrUserNotFound
			}
			return UserResponse{}, err
		}
	}

	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return UserResponse{}, err
	}
	return mapToUserResponse(*user), nil
}

func (s *service) UpdatePassword(ctx context.Context, userID string, req UpdatePasswordRequest) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return autherrors.ErrInvalidUserID
	}

	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return autherrors.ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return autherrors.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, uid, string(hashed)); err != nil {
		return err
	}

	s.logger.Info("password updated", zap.String("user_id", userID))
	return nil
}

func (s *service) issueTokens(user User) (TokenResponse, error) {
	access, err := signToken(user, "access", accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	refresh, err := signToken(user, "refresh", refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         mapToUserResponse(user),
	}, nil
}

func signToken(user User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    user.ID.String(),
		"email":      user.Email,
		"token_type": tokenType,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, autherrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, autherrors.ErrInvalidToken
	}
	return claims, nil
}
