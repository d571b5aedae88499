// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"time"

	"go_5_course_keep/internal/config"
	"go_5_course_keep/internal/middleware"
	"go_5_course_keep/internal/model"
	"go_5_course_keep/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService はユーザー登録とログインを提供します。
type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
}

type authService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{db: db, userRepo: userRepo, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	logger := middleware.GetLogger(ctx).With("username", req.Username)

	var created *model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// ユーザー名の重複チェック
		_, err := s.userRepo.FindByUsername(ctx, tx, req.Username)
		if err == nil {
			return model.NewAppError("USERNAME_TAKEN", "このユーザー名は既に使用されています。", "username", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			logger.Error("Error finding user in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー登録に失敗しました。", "", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Error hashing password", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー登録に失敗しました。", "", err)
		}

		user := &model.User{
			UserID:       uuid.New(),
			Username:     req.Username,
			PasswordHash: string(hash),
		}
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			if errors.Is(err, model.ErrConflict) {
				// チェック後に別リクエストが同名で登録したケース
				return model.NewAppError("USERNAME_TAKEN", "このユーザー名は既に使用されています。", "username", model.ErrConflict)
			}
			logger.Error("Error creating user in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー登録に失敗しました。", "", err)
		}

		created = user
		return nil // コミット
	})

	if err != nil {
		return nil, err
	}

	logger.Info("User registered", "user_id", created.UserID)
	return created, nil
}

func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx).With("username", req.Username)

	user, err := s.userRepo.FindByUsername(ctx, s.db, req.Username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// ユーザーの存在有無は区別せず同じエラーを返す
			return nil, model.NewAppError("INVALID_CREDENTIALS", "ユーザー名またはパスワードが正しくありません。", "", model.ErrForbidden)
		}
		logger.Error("Error finding user", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ログインに失敗しました。", "", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.NewAppError("INVALID_CREDENTIALS", "ユーザー名またはパスワードが正しくありません。", "", model.ErrForbidden)
	}

	token, err := s.generateToken(user)
	if err != nil {
		logger.Error("Error signing token", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ログインに失敗しました。", "", err)
	}

	logger.Info("User logged in", "user_id", user.UserID)
	return &model.LoginResponse{AccessToken: token}, nil
}

func (s *authService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &model.JWTCustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.AppName,
			Subject:   user.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.JWT.ExpiryMinutes) * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.SecretKey))
}
