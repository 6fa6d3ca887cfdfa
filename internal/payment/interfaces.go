package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Details carries the tokenized payment method supplied by the storefront.
// Raw card data never reaches this service.
type Details struct {
	SourceToken string
	CustomerRef string
	Note        string
}

// Validator answers whether a payment of the given amount would be accepted.
// A nil return means approved. Rejections, including indeterminate outcomes
// such as timeouts, surface as typed errors so order creation can abort
// before any stock is touched.
type Validator interface {
	Validate(ctx context.Context, amount decimal.Decimal, details Details) error
}
