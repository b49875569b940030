package booking

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostedPaymentLinks_Generate(t *testing.T) {
	g := NewHostedPaymentLinks("https://pay.example.com/checkout")
	b := &BookingRequest{ID: 42, ReferenceCode: "TS-260315-001AB"}
	expires := time.Date(2026, 3, 22, 12, 0, 0, 0, time.UTC)

	link, err := g.Generate(context.Background(), b, 5000, expires)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "pay.example.com", u.Host)
	assert.Regexp(t, `^/checkout/deposits/[0-9a-f-]{36}$`, u.Path)
	assert.Equal(t, "42", u.Query().Get("booking"))
	assert.Equal(t, "TS-260315-001AB", u.Query().Get("reference"))
	assert.Equal(t, "5000", u.Query().Get("amount"))
	assert.Equal(t, "2026-03-22T12:00:00Z", u.Query().Get("expires"))

	other, err := g.Generate(context.Background(), b, 5000, expires)
	require.NoError(t, err)
	assert.NotEqual(t, link, other)
}

func TestHostedPaymentLinks_NotConfigured(t *testing.T) {
	_, err := NewHostedPaymentLinks("").Generate(context.Background(), &BookingRequest{}, 1, time.Now())
	assert.Error(t, err)
}
