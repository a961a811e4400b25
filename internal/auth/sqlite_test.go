package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/solecart-backend/internal/users"
	"github.com/angelmondragon/solecart-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/migrate"
	"github.com/angelmondragon/solecart-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSQLiteHarness(t *testing.T) (*testHarness, *users.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, migrate.AutoMigrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := users.NewRepository(conn)
	h := newHarness(t, func(p *ServiceParams) {
		p.TxRunner = db.FromGorm(conn)
		p.UserRepo = repo
		p.UserRepoFactory = TxScopedUsers(repo)
	})
	return h, repo
}

func TestRegisterLoginAndResetAgainstSQLite(t *testing.T) {
	h, repo := newSQLiteHarness(t)
	ctx := context.Background()

	sess, err := h.svc.Register(ctx, RegisterRequest{Email: "Shopper@Example.com", Password: "secret1", DisplayName: "Shopper"})
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", sess.User.Email)

	_, err = h.svc.Register(ctx, RegisterRequest{Email: "shopper@example.com", Password: "secret2"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = h.svc.Login(ctx, LoginRequest{Email: "shopper@example.com", Password: "secret1"})
	require.NoError(t, err)

	stored, err := repo.FindByEmail(ctx, "shopper@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)

	_, err = h.svc.RequestPasswordReset(ctx, ResetPasswordRequest{Email: "shopper@example.com"})
	require.NoError(t, err)
	stored, err = repo.FindByEmail(ctx, "shopper@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetPasswordToken)
	token := *stored.ResetPasswordToken

	require.NoError(t, h.svc.ResetPassword(ctx, ChangePasswordRequest{ResetPasswordToken: token, NewPassword: "brandnew"}))

	err = h.svc.ResetPassword(ctx, ChangePasswordRequest{ResetPasswordToken: token, NewPassword: "again!"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	stored, err = repo.FindByEmail(ctx, "shopper@example.com")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("brandnew", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.svc.Login(ctx, LoginRequest{Email: "shopper@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
