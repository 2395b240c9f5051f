package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/auth/repository"
	"github.com/smallbiznis/invoicedesk/internal/auth/token"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, clk clock.Clock) authdomain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&authdomain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:    zap.NewNop(),
		Repo:   repository.NewWithTable(dbConn, authdomain.DefaultTable),
		Issuer: token.New([]byte("test-secret"), token.DefaultTTL, clk),
		GenID:  node,
	})
}

func TestRegisterStoresAdminUser(t *testing.T) {
	svc := newTestService(t, clock.SystemClock{})

	user, err := svc.Register(context.Background(), authdomain.RegisterRequest{
		Username: "alice",
		Password: "correct-password",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.FullName)
	assert.Equal(t, authdomain.StatusActive, user.Status)
	assert.Equal(t, authdomain.TypeAdmin, user.Type)
	assert.NotEqual(t, "correct-password", user.Password)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService(t, clock.SystemClock{})
	ctx := context.Background()

	_, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, authdomain.RegisterRequest{Username: "alice", Password: "pw2"})
	assert.ErrorIs(t, err, authdomain.ErrUserExists)
}

func TestRegisterRequiresCredentials(t *testing.T) {
	svc := newTestService(t, clock.SystemClock{})

	_, err := svc.Register(context.Background(), authdomain.RegisterRequest{Username: " "})
	assert.ErrorIs(t, err, authdomain.ErrInvalidRequest)
}

func TestLogin(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
	svc := newTestService(t, clk)
	ctx := context.Background()

	_, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "alice", Password: "correct-password"})
	require.NoError(t, err)

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, authdomain.LoginRequest{Username: "nobody", Password: "x"})
		assert.ErrorIs(t, err, authdomain.ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, authdomain.LoginRequest{Username: "alice", Password: "wrong-password"})
		assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		res, err := svc.Login(ctx, authdomain.LoginRequest{Username: "alice", Password: "correct-password"})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, clk.Now().Add(8*time.Hour), res.ExpiresAt)

		principal, err := svc.Authenticate(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", principal.Username)
		assert.Equal(t, res.User.ID.String(), principal.UserID)
	})
}

func TestAuthenticate(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
	svc := newTestService(t, clk)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, authdomain.ErrMissingToken)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)

	_, err = svc.Register(ctx, authdomain.RegisterRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, authdomain.LoginRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	clk.Advance(9 * time.Hour)
	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, authdomain.ErrTokenExpired)
}
