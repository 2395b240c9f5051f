package token

import (
	"testing"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	issuer := New([]byte("secret"), 0, clk)

	raw, expiresAt, err := issuer.Issue("42", "alice")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC), expiresAt)

	principal, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", principal.UserID)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, expiresAt, principal.ExpiresAt)
}

func TestParseExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	issuer := New([]byte("secret"), time.Hour, clk)

	raw, _, err := issuer.Issue("42", "alice")
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	raw, _, err := New([]byte("one"), time.Hour, clk).Issue("1", "bob")
	require.NoError(t, err)

	_, err = New([]byte("two"), time.Hour, clk).Parse(raw)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = New([]byte("two"), time.Hour, clk).Parse("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
