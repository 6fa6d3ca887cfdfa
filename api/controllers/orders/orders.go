package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oventura/traderow-backend/api/middleware"
	"github.com/oventura/traderow-backend/api/responses"
	"github.com/oventura/traderow-backend/api/validators"
	internalorders "github.com/oventura/traderow-backend/internal/orders"
	"github.com/oventura/traderow-backend/internal/payment"
	"github.com/oventura/traderow-backend/internal/tenant"
	"github.com/oventura/traderow-backend/pkg/enums"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
	"github.com/oventura/traderow-backend/pkg/logger"
	"github.com/oventura/traderow-backend/pkg/outbox"
	"github.com/oventura/traderow-backend/pkg/pagination"
)

type createOrderRequest struct {
	CustomerID uuid.UUID                `json:"customerId" validate:"required"`
	AddressID  uuid.UUID                `json:"addressId" validate:"required"`
	Items      []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Payment    paymentDetailsRequest    `json:"payment" validate:"required"`
}

type createOrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type paymentDetailsRequest struct {
	SourceToken string `json:"sourceToken" validate:"required"`
	CustomerRef string `json:"customerRef,omitempty"`
	Note        string `json:"note,omitempty"`
}

type updateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

type listOrdersResponse struct {
	Items  []internalorders.OrderDTO `json:"items"`
	Cursor string                    `json:"cursor"`
}

// Create places a new order for the caller's tenant.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		scope, actor, err := callerContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			CustomerID: payload.CustomerID,
			AddressID:  payload.AddressID,
			Payment: payment.Details{
				SourceToken: payload.Payment.SourceToken,
				CustomerRef: payload.Payment.CustomerRef,
				Note:        payload.Payment.Note,
			},
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, internalorders.CreateOrderItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.Create(r.Context(), scope, input, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.ToOrderDTO(order))
	}
}

// List returns a page of the tenant's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		scope, _, err := callerContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		rows, cursor, err := svc.List(r.Context(), scope, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listOrdersResponse{Items: internalorders.ToOrderDTOs(rows), Cursor: cursor})
	}
}

// Detail returns a single order with its line items.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		scope, _, err := callerContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), scope, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToOrderDTO(order))
	}
}

// Cancel cancels an order and returns its stock to inventory.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		scope, actor, err := callerContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), scope, orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToOrderDTO(order))
	}
}

// UpdateStatus advances an order one step along the workflow.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		scope, actor, err := callerContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), scope, orderID, payload.Status, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToOrderDTO(order))
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func callerContext(r *http.Request) (tenant.Scope, *outbox.ActorRef, error) {
	scope, ok := tenant.FromContext(r.Context())
	if !ok {
		return tenant.Unbound(), nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}

	actor := &outbox.ActorRef{Role: middleware.RoleFromContext(r.Context())}
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		if userID, err := uuid.Parse(raw); err == nil {
			actor.UserID = userID
		}
	}
	if companyID, ok := scope.CompanyID(); ok {
		actor.CompanyID = &companyID
	}
	return scope, actor, nil
}
