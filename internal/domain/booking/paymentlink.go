package booking

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// HostedPaymentLinks builds checkout links on the payment provider's hosted
// page. The token lets the provider's webhook find the booking again.
type HostedPaymentLinks struct {
	baseURL string
}

func NewHostedPaymentLinks(baseURL string) *HostedPaymentLinks {
	return &HostedPaymentLinks{baseURL: baseURL}
}

func (g *HostedPaymentLinks) Generate(_ context.Context, b *BookingRequest, amount int64, expiresAt time.Time) (string, error) {
	if g.baseURL == "" {
		return "", errors.New("payment link base url is not configured")
	}
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", err
	}
	u = u.JoinPath("deposits", uuid.NewString())
	q := u.Query()
	q.Set("booking", strconv.FormatInt(b.ID, 10))
	q.Set("reference", b.ReferenceCode)
	q.Set("amount", strconv.FormatInt(amount, 10))
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
