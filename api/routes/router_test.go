package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oventura/traderow-backend/internal/notifications"
	ordersvc "github.com/oventura/traderow-backend/internal/orders"
	"github.com/oventura/traderow-backend/internal/tenant"
	pkgAuth "github.com/oventura/traderow-backend/pkg/auth"
	"github.com/oventura/traderow-backend/pkg/config"
	"github.com/oventura/traderow-backend/pkg/db/models"
	"github.com/oventura/traderow-backend/pkg/enums"
	"github.com/oventura/traderow-backend/pkg/logger"
	"github.com/oventura/traderow-backend/pkg/outbox"
	"github.com/oventura/traderow-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct {
	get  func(ctx context.Context, scope tenant.Scope, orderID uuid.UUID) (*models.Order, error)
	list func(ctx context.Context, scope tenant.Scope, params pagination.Params) ([]models.Order, string, error)
}

// Create implements [ordersvc.Service].
func (s stubOrdersService) Create(ctx context.Context, scope tenant.Scope, input ordersvc.CreateOrderInput, actor *outbox.ActorRef) (*models.Order, error) {
	panic("unimplemented")
}

// Cancel implements [ordersvc.Service].
func (s stubOrdersService) Cancel(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, actor *outbox.ActorRef) (*models.Order, error) {
	panic("unimplemented")
}

// UpdateStatus implements [ordersvc.Service].
func (s stubOrdersService) UpdateStatus(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, next enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrdersService) Get(ctx context.Context, scope tenant.Scope, orderID uuid.UUID) (*models.Order, error) {
	if s.get != nil {
		return s.get(ctx, scope, orderID)
	}
	return &models.Order{ID: orderID}, nil
}

func (s stubOrdersService) List(ctx context.Context, scope tenant.Scope, params pagination.Params) ([]models.Order, string, error) {
	if s.list != nil {
		return s.list(ctx, scope, params)
	}
	return []models.Order{}, "", nil
}

type stubNotificationsService struct {
	list func(ctx context.Context, scope tenant.Scope, query notifications.ListQuery) (*notifications.ListResult, error)
}

func (s stubNotificationsService) List(ctx context.Context, scope tenant.Scope, query notifications.ListQuery) (*notifications.ListResult, error) {
	if s.list != nil {
		return s.list(ctx, scope, query)
	}
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, scope tenant.Scope, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, scope tenant.Scope) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "traderow",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, orders ordersvc.Service, notifs notifications.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Redis:         nil,
		PubSub:        stubPinger{},
		Orders:        orders,
		Notifications: notifs,
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	companyID := uuid.New()
	payload := pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	}
	if role != enums.RoleSuperAdmin {
		payload.CompanyID = &companyID
	}
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{}, stubNotificationsService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestOrdersRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{}, stubNotificationsService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrdersListSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	var sawScope tenant.Scope
	orders := stubOrdersService{
		list: func(ctx context.Context, scope tenant.Scope, params pagination.Params) ([]models.Order, string, error) {
			sawScope = scope
			return []models.Order{}, "", nil
		},
	}
	router := newTestRouter(cfg, orders, stubNotificationsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCompanyUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if _, ok := sawScope.CompanyID(); !ok {
		t.Fatal("expected company scope threaded from token")
	}
}

func TestOrderDetailRoute(t *testing.T) {
	cfg := testConfig()
	orderID := uuid.New()
	router := newTestRouter(cfg, stubOrdersService{}, stubNotificationsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCompanyUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != orderID.String() {
		t.Fatalf("expected order %s got %s", orderID, envelope.Data.ID)
	}
}

func TestOrderDetailRejectsBadID(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubOrdersService{}, stubNotificationsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCompanyUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateOrderRejectsEmptyBody(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubOrdersService{}, stubNotificationsService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCompanyUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestNotificationsListSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubOrdersService{}, stubNotificationsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleSuperAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubOrdersService{}, stubNotificationsService{})

	companyID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID:    uuid.New(),
		CompanyID: &companyID,
		Role:      enums.RoleCompanyUser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token got %d", resp.Code)
	}
}
