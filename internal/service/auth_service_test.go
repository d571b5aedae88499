// internal/service/auth_service_test.go
package service

import (
	"context"
	"testing"

	"go_5_course_keep/internal/config"
	"go_5_course_keep/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key"
	cfg.JWT.ExpiryMinutes = 60
	return cfg
}

func Test_authService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: パスワードはハッシュ化して保存される", func(t *testing.T) {
		env := newTestEnv(t)
		authService := NewAuthService(env.db, env.userRepo, newTestAuthConfig())

		user, err := authService.Register(ctx, &model.RegisterRequest{
			Username: "alice",
			Password: "password123",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.NotEqual(t, "password123", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	})

	t.Run("異常系: 同名ユーザーはConflict", func(t *testing.T) {
		env := newTestEnv(t)
		authService := NewAuthService(env.db, env.userRepo, newTestAuthConfig())

		_, err := authService.Register(ctx, &model.RegisterRequest{Username: "bob", Password: "password123"})
		require.NoError(t, err)

		_, err = authService.Register(ctx, &model.RegisterRequest{Username: "bob", Password: "another-pass"})
		assert.ErrorIs(t, err, model.ErrConflict)
	})
}

func Test_authService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: subにユーザーIDを持つトークンが返る", func(t *testing.T) {
		env := newTestEnv(t)
		cfg := newTestAuthConfig()
		authService := NewAuthService(env.db, env.userRepo, cfg)

		user, err := authService.Register(ctx, &model.RegisterRequest{Username: "carol", Password: "password123"})
		require.NoError(t, err)

		resp, err := authService.Login(ctx, &model.LoginRequest{Username: "carol", Password: "password123"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.AccessToken)

		claims := &model.JWTCustomClaims{}
		token, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWT.SecretKey), nil
		})
		require.NoError(t, err)
		assert.True(t, token.Valid)
		assert.Equal(t, user.UserID.String(), claims.Subject)
	})

	t.Run("異常系: パスワード不一致はForbidden", func(t *testing.T) {
		env := newTestEnv(t)
		authService := NewAuthService(env.db, env.userRepo, newTestAuthConfig())

		_, err := authService.Register(ctx, &model.RegisterRequest{Username: "dave", Password: "password123"})
		require.NoError(t, err)

		_, err = authService.Login(ctx, &model.LoginRequest{Username: "dave", Password: "wrong-pass"})
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("異常系: 存在しないユーザーも同じエラー", func(t *testing.T) {
		env := newTestEnv(t)
		authService := NewAuthService(env.db, env.userRepo, newTestAuthConfig())

		_, err := authService.Login(ctx, &model.LoginRequest{Username: "nobody", Password: "password123"})
		assert.ErrorIs(t, err, model.ErrForbidden)
	})
}
