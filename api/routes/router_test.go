package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shopfronthq/shopfront-backend/internal/analytics"
	analyticstypes "github.com/shopfronthq/shopfront-backend/internal/analytics/types"
	"github.com/shopfronthq/shopfront-backend/internal/auth"
	"github.com/shopfronthq/shopfront-backend/internal/inventory"
	"github.com/shopfronthq/shopfront-backend/internal/orders"
	"github.com/shopfronthq/shopfront-backend/internal/products"
	"github.com/shopfronthq/shopfront-backend/internal/settings"
	"github.com/shopfronthq/shopfront-backend/internal/users"
	pkgauth "github.com/shopfronthq/shopfront-backend/pkg/auth"
	"github.com/shopfronthq/shopfront-backend/pkg/auth/session"
	"github.com/shopfronthq/shopfront-backend/pkg/config"
	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

func (stubAuthService) Register(context.Context, auth.RegisterRequest) (*users.AdminUserDTO, error) {
	return &users.AdminUserDTO{}, nil
}

func (stubAuthService) Refresh(context.Context, auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return &auth.RefreshResponse{}, nil
}

func (stubAuthService) Logout(context.Context, string) error { return nil }

type stubProductService struct{}

func (stubProductService) Create(context.Context, products.CreateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) List(context.Context, products.ListProductsFilter) (*products.ProductList, error) {
	return &products.ProductList{}, nil
}

func (stubProductService) Update(context.Context, uuid.UUID, products.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) Delete(context.Context, uuid.UUID) error { return nil }

func (stubProductService) ResolveLine(context.Context, uuid.UUID, *uuid.UUID) (*products.ResolvedLine, error) {
	return &products.ResolvedLine{}, nil
}

type stubOrderService struct{}

func (stubOrderService) Create(context.Context, orders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) List(context.Context, orders.ListOrdersFilter) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrderService) UpdateStatus(context.Context, uuid.UUID, orders.UpdateStatusInput) (*models.Order, error) {
	return &models.Order{}, nil
}

type stubInventoryService struct{}

func (stubInventoryService) UpsertRecord(context.Context, inventory.UpsertRecordInput) (*models.InventoryRecord, error) {
	return &models.InventoryRecord{}, nil
}

func (stubInventoryService) Adjust(context.Context, inventory.AdjustInput) (*models.StockMovement, error) {
	return &models.StockMovement{}, nil
}

func (stubInventoryService) GetRecord(context.Context, uuid.UUID) (*models.InventoryRecord, error) {
	return &models.InventoryRecord{}, nil
}

func (stubInventoryService) ListRecords(context.Context, inventory.ListRecordsFilter) ([]models.InventoryRecord, error) {
	return nil, nil
}

func (stubInventoryService) ListMovements(context.Context, inventory.ListMovementsFilter) ([]models.StockMovement, string, error) {
	return nil, "", nil
}

type stubSettingsService struct{}

func (stubSettingsService) Get(context.Context, string) (string, error) { return "true", nil }

func (stubSettingsService) Set(context.Context, string, string) error { return nil }

func (stubSettingsService) StockManagementEnabled(context.Context) (bool, error) { return true, nil }

func (stubSettingsService) SetStockManagementEnabled(context.Context, bool) error { return nil }

type stubAnalyticsService struct{}

func (stubAnalyticsService) SalesSummary(context.Context, analyticstypes.SalesQueryRequest) (*analyticstypes.SalesQueryResponse, error) {
	return &analyticstypes.SalesQueryResponse{}, nil
}

var _ analytics.Service = stubAnalyticsService{}
var _ settings.Service = stubSettingsService{}

func testConfig(env string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: env},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "shopfront-test", ExpirationMinutes: 15},
	}
}

func newTestRouter(t *testing.T, env string) http.Handler {
	t.Helper()
	return NewRouter(RouterParams{
		Config:           testConfig(env),
		Logger:           logger.New(logger.Options{ServiceName: "router-test"}),
		DB:               stubPinger{},
		SessionManager:   stubSessionChecker{},
		AuthService:      stubAuthService{},
		ProductService:   stubProductService{},
		OrderService:     stubOrderService{},
		InventoryService: stubInventoryService{},
		SettingsService:  stubSettingsService{},
		AnalyticsService: stubAnalyticsService{},
	})
}

func mintRouterToken(t *testing.T, role enums.AdminRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig("dev").JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "ops@example.com",
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, "dev")

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, "dev")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterAllowsAuthenticatedAccess(t *testing.T) {
	router := newTestRouter(t, "dev")
	token := mintRouterToken(t, enums.AdminRoleStaff)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterSettingsWriteRequiresAdmin(t *testing.T) {
	router := newTestRouter(t, "dev")
	token := mintRouterToken(t, enums.AdminRoleStaff)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/stock-management",
		nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRouterRegisterHiddenInProduction(t *testing.T) {
	router := newTestRouter(t, "prod")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK || resp.Code == http.StatusCreated {
		t.Fatalf("register should not be routable in prod, got %d", resp.Code)
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	router := newTestRouter(t, "dev")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
