package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
)

type timeoutValidator struct {
	inner   Validator
	timeout time.Duration
}

// WithTimeout bounds every validation call. An expired deadline is reported
// as a rejection, never as an approval, so an unresponsive gateway cannot
// let an order through.
func WithTimeout(inner Validator, timeout time.Duration) Validator {
	if timeout <= 0 {
		return inner
	}
	return &timeoutValidator{inner: inner, timeout: timeout}
}

func (t *timeoutValidator) Validate(ctx context.Context, amount decimal.Decimal, details Details) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	err := t.inner.Validate(ctx, amount, details)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodePaymentRejected, err, "payment validation timed out")
	}
	return err
}
