package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfronthq/shopfront-backend/api/middleware"
	ordersvc "github.com/shopfronthq/shopfront-backend/internal/orders"
	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
)

type capturingOrderService struct {
	createInput ordersvc.CreateOrderInput
	updateID    uuid.UUID
	updateInput ordersvc.UpdateStatusInput
	listFilter  ordersvc.ListOrdersFilter
	err         error
}

func (s *capturingOrderService) Create(_ context.Context, input ordersvc.CreateOrderInput) (*models.Order, error) {
	s.createInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{OrderNumber: "SF-1001"}, nil
}

func (s *capturingOrderService) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, s.err
}

func (s *capturingOrderService) List(_ context.Context, filter ordersvc.ListOrdersFilter) (*ordersvc.OrderList, error) {
	s.listFilter = filter
	return &ordersvc.OrderList{}, s.err
}

func (s *capturingOrderService) UpdateStatus(_ context.Context, id uuid.UUID, input ordersvc.UpdateStatusInput) (*models.Order, error) {
	s.updateID = id
	s.updateInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test"})
}

func actorContext(r *http.Request, userID uuid.UUID, role enums.AdminRole) *http.Request {
	ctx := middleware.WithUserID(r.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return r.WithContext(ctx)
}

func decodeErrorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	svc := &capturingOrderService{}
	actor := uuid.New()
	productID := uuid.New()

	body := map[string]any{
		"email":    "buyer@example.com",
		"currency": "USD",
		"items": []map[string]any{
			{"product_id": productID.String(), "quantity": 3},
		},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(raw))
	req = actorContext(req, actor, enums.AdminRoleStaff)
	resp := httptest.NewRecorder()

	CreateOrder(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "buyer@example.com", svc.createInput.Email)
	require.Len(t, svc.createInput.Items, 1)
	assert.Equal(t, productID, svc.createInput.Items[0].ProductID)
	assert.Equal(t, 3, svc.createInput.Items[0].Quantity)
	require.NotNil(t, svc.createInput.CreatedBy)
	assert.Equal(t, actor, *svc.createInput.CreatedBy)
	assert.Equal(t, string(enums.AdminRoleStaff), svc.createInput.ActorRole)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	svc := &capturingOrderService{}

	raw := []byte(`{"email":"buyer@example.com","items":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(raw))
	resp := httptest.NewRecorder()

	CreateOrder(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, resp.Body))
}

func TestCreateOrderRejectsMalformedProductID(t *testing.T) {
	svc := &capturingOrderService{}

	raw := []byte(`{"email":"buyer@example.com","items":[{"product_id":"not-a-uuid","quantity":1}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(raw))
	resp := httptest.NewRecorder()

	CreateOrder(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, resp.Body))
}

func TestCreateOrderSurfacesServiceError(t *testing.T) {
	svc := &capturingOrderService{
		err: pkgerrors.New(pkgerrors.CodeConflict, "stock level changed, retry"),
	}
	productID := uuid.New()

	raw := []byte(`{"email":"buyer@example.com","items":[{"product_id":"` + productID.String() + `","quantity":1}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(raw))
	resp := httptest.NewRecorder()

	CreateOrder(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), decodeErrorCode(t, resp.Body))
}

func TestCancelOrderRequestsCancelledStatus(t *testing.T) {
	svc := &capturingOrderService{}
	actor := uuid.New()
	orderID := uuid.New()

	router := chi.NewRouter()
	router.Post("/orders/{orderId}/cancel", CancelOrder(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/cancel", nil)
	req = actorContext(req, actor, enums.AdminRoleAdmin)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, orderID, svc.updateID)
	require.NotNil(t, svc.updateInput.Status)
	assert.Equal(t, enums.OrderStatusCancelled, *svc.updateInput.Status)
	require.NotNil(t, svc.updateInput.ActorUserID)
	assert.Equal(t, actor, *svc.updateInput.ActorUserID)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc := &capturingOrderService{}
	orderID := uuid.New()

	router := chi.NewRouter()
	router.Patch("/orders/{orderId}/status", UpdateOrderStatus(svc, testLogger()))

	raw := []byte(`{"status":"teleported"}`)
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", bytes.NewReader(raw))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, resp.Body))
}

func TestListOrdersParsesFilters(t *testing.T) {
	svc := &capturingOrderService{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=pending&search=SF-10&limit=25", nil)
	resp := httptest.NewRecorder()

	ListOrders(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.listFilter.Status)
	assert.Equal(t, enums.OrderStatusPending, *svc.listFilter.Status)
	assert.Equal(t, "SF-10", svc.listFilter.Search)
	assert.Equal(t, 25, svc.listFilter.Limit)
}

func TestGetOrderRejectsMalformedID(t *testing.T) {
	svc := &capturingOrderService{}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}", GetOrder(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/orders/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, resp.Body))
}
