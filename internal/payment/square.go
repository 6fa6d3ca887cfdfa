package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/oventura/traderow-backend/pkg/config"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
	"github.com/oventura/traderow-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

var (
	errAccessTokenRequired = errors.New("payment access token is required")
	errInvalidPaymentEnv   = fmt.Errorf("payment environment must be %q or %q", sandboxEnv, productionEnv)
)

// SquareValidator authorizes payments against Square without capturing them.
// The storefront captures separately once the order ships.
type SquareValidator struct {
	sdk        *sqclient.Client
	locationID string
	logg       *logger.Logger
}

func NewSquareValidator(ctx context.Context, cfg config.PaymentConfig, logg *logger.Logger) (*SquareValidator, error) {
	env := strings.TrimSpace(strings.ToLower(cfg.Environment))
	if env == "" {
		env = sandboxEnv
	}
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, errInvalidPaymentEnv
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(token),
	)

	if logg != nil {
		logg.Info(ctx, "payment validator initialized")
	}
	return &SquareValidator{
		sdk:        sdk,
		locationID: strings.TrimSpace(cfg.LocationID),
		logg:       logg,
	}, nil
}

func (v *SquareValidator) Validate(ctx context.Context, amount decimal.Decimal, details Details) error {
	if v == nil || v.sdk == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "payment validator required")
	}
	if strings.TrimSpace(details.SourceToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment source token is required")
	}
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be non-negative")
	}

	autocomplete := false
	req := &sq.CreatePaymentRequest{
		IdempotencyKey: fmt.Sprintf("tr-auth-%s", uuid.NewString()),
		SourceID:       details.SourceToken,
		Autocomplete:   &autocomplete,
		AmountMoney:    money(amount),
	}
	if v.locationID != "" {
		req.LocationID = &v.locationID
	}
	if ref := strings.TrimSpace(details.CustomerRef); ref != "" {
		req.CustomerID = &ref
	}
	if note := strings.TrimSpace(details.Note); note != "" {
		req.Note = &note
	}

	resp, err := v.sdk.Payments.Create(ctx, req)
	if err != nil {
		return v.mapError(ctx, err)
	}

	payment := resp.GetPayment()
	status := ""
	if payment != nil && payment.GetStatus() != nil {
		status = *payment.GetStatus()
	}
	switch status {
	case "APPROVED", "COMPLETED":
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodePaymentRejected, "payment was not approved").
			WithDetails(map[string]any{"status": status})
	}
}

// mapError fails closed: anything other than a definitive approval rejects
// the payment so stock is never decremented on an indeterminate outcome.
func (v *SquareValidator) mapError(ctx context.Context, err error) error {
	if v.logg != nil {
		v.logg.Error(ctx, "payment authorization failed", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodePaymentRejected, err, "payment validation timed out")
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
		}
		return pkgerrors.Wrap(pkgerrors.CodePaymentRejected, err, "payment was rejected")
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentRejected, err, "payment could not be validated")
}

func money(amount decimal.Decimal) *sq.Money {
	cents := amount.Shift(2).IntPart()
	currency := sq.Currency("USD")
	return &sq.Money{
		Amount:   &cents,
		Currency: &currency,
	}
}
