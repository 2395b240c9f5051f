package seed

import (
	"context"
	"testing"

	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/auth/password"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.User{}))

	cfg := config.BootstrapConfig{AdminUsername: "admin", AdminPassword: "changeme"}
	ctx := context.Background()

	created, err := EnsureAdmin(ctx, conn, "", cfg)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureAdmin(ctx, conn, "", cfg)
	require.NoError(t, err)
	assert.False(t, created)

	var user authdomain.User
	require.NoError(t, conn.Where(map[string]any{"Username": "admin"}).Take(&user).Error)
	assert.True(t, password.Verify("changeme", user.Password))
	assert.Equal(t, authdomain.TypeAdmin, user.Type)
}

func TestEnsureAdminRequiresHandle(t *testing.T) {
	created, err := EnsureAdmin(context.Background(), nil, "", config.BootstrapConfig{})
	assert.Error(t, err)
	assert.False(t, created)
}
