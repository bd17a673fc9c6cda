// Package quote defines the pricing abstraction the routing engine consumes.
// A provider either prices a request or reports it unavailable; callers must
// branch on the unavailable case explicitly.
package quote

import (
	"context"

	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/model"
)

// SwapRequest prices an exact-input exchange at one venue on one domain.
type SwapRequest struct {
	Domain    id.Domain
	Venue     string
	FromToken id.Token
	ToToken   id.Token
	AmountIn  float64
}

// BridgeRequest prices moving a bridgeable asset between two domains.
type BridgeRequest struct {
	FromDomain id.Domain
	ToDomain   id.Domain
	Venue      string
	Asset      id.Token
	AmountIn   float64
}

// Provider prices requests against external venues. Both methods return an
// error carrying errors.CodeUnavailable when the venue cannot price the
// request; that outcome drops one candidate and nothing else.
type Provider interface {
	QuoteSwap(ctx context.Context, req SwapRequest) (model.Quote, error)
	QuoteBridge(ctx context.Context, req BridgeRequest) (model.Quote, error)
}

// Unavailable builds the typed error a provider returns when a venue cannot
// price a request.
func Unavailable(message string) error {
	return clierr.New(clierr.CodeUnavailable, message)
}

// IsUnavailable reports whether err means "this venue cannot price this
// request" as opposed to a harder failure.
func IsUnavailable(err error) bool {
	return clierr.HasCode(err, clierr.CodeUnavailable)
}
