package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/cache"
	"github.com/orderdash/orderdash/internal/config"
	"github.com/orderdash/orderdash/internal/database"
	"github.com/orderdash/orderdash/internal/entity"
	repo "github.com/orderdash/orderdash/internal/repository/order"
	service "github.com/orderdash/orderdash/internal/service/order"
	transport "github.com/orderdash/orderdash/internal/transport/http/order"
	"github.com/orderdash/orderdash/internal/web"
)

const testSchema = `
CREATE TABLE orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    order_number VARCHAR(50) NOT NULL UNIQUE,
    customer_name VARCHAR(255) NOT NULL,
    product_name VARCHAR(255) NOT NULL,
    quantity INTEGER NOT NULL,
    price NUMERIC NOT NULL,
    total NUMERIC NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'Pending',
    order_date TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    notes TEXT NOT NULL DEFAULT ''
);
`

type testServer struct {
	echo  *echo.Echo
	svc   *service.Service
	repo  *repo.Repository
	conns *database.Connections
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "orders.db")
	conns, err := database.Open(config.Database{Driver: "sqlite", WriterDSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	_, err = conns.Writer.ExecContext(context.Background(), testSchema)
	require.NoError(t, err)

	repository := repo.NewRepository(conns)

	cfg, err := config.New()
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		Repository: repository,
		Cache:      cache.NewNoop(),
		Config:     cfg,
		Logger:     zap.NewNop(),
		Publisher:  nil,
	})

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	transport.Register(e, transport.NewHandler(svc, zap.NewNop()))

	return &testServer{echo: e, svc: svc, repo: repository, conns: conns}
}

func (s *testServer) createOrder(t *testing.T, number string) *entity.Order {
	t.Helper()
	order, err := s.svc.Create(context.Background(), service.Input{
		OrderNumber:  number,
		CustomerName: "Alice",
		ProductName:  "Widget",
		Quantity:     "3",
		Price:        "9.99",
	})
	require.NoError(t, err)
	return order
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func validForm() url.Values {
	return url.Values{
		"order_number":  {"ORD-1"},
		"customer_name": {"Alice"},
		"product_name":  {"Widget"},
		"quantity":      {"3"},
		"price":         {"9.99"},
		"status":        {"Pending"},
		"notes":         {""},
	}
}

func TestIndexListsOrders(t *testing.T) {
	s := newTestServer(t)
	s.createOrder(t, "ORD-1")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ORD-1")
	require.Contains(t, rec.Body.String(), "Alice")
}

func TestCreateFormRenders(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/create", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "New Order")
}

func TestCreateSubmitRedirects(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(postForm("/create", validForm()))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	orders, err := s.repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.True(t, orders[0].Total.Equal(decimal.RequireFromString("29.97")))
}

func TestCreateSubmitInvalidRerendersWithErrors(t *testing.T) {
	s := newTestServer(t)

	form := validForm()
	form.Set("customer_name", "")
	form.Set("quantity", "0")

	rec := s.do(postForm("/create", form))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Customer name is required")
	require.Contains(t, rec.Body.String(), "Quantity must be greater than 0")
	// Submitted values are echoed back into the form.
	require.Contains(t, rec.Body.String(), "ORD-1")

	orders, err := s.repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCreateDuplicateNumberRerenders(t *testing.T) {
	s := newTestServer(t)
	s.createOrder(t, "ORD-1")

	rec := s.do(postForm("/create", validForm()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Order number already exists")
}

func TestEditFormPrefilled(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t, "ORD-1")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/edit/"+strconv.FormatInt(order.ID, 10), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ORD-1")
	require.Contains(t, rec.Body.String(), "9.99")
}

func TestEditFormMissingOrderRedirects(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/edit/404", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestEditSubmitUpdatesOrder(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t, "ORD-1")

	form := validForm()
	form.Set("customer_name", "Bob")
	form.Set("quantity", "2")
	form.Set("price", "5.00")
	form.Set("status", "Processing")

	rec := s.do(postForm("/edit/"+strconv.FormatInt(order.ID, 10), form))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	stored, err := s.repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, "Bob", stored.CustomerName)
	require.Equal(t, entity.StatusProcessing, stored.Status)
	require.True(t, stored.Total.Equal(decimal.RequireFromString("10.00")))
	require.Equal(t, "ORD-1", stored.OrderNumber)
}

func TestDeleteRemovesOrder(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t, "ORD-1")

	rec := s.do(postForm("/delete/"+strconv.FormatInt(order.ID, 10), url.Values{}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	orders, err := s.repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestDeleteMissingOrderRedirects(t *testing.T) {
	s := newTestServer(t)
	s.createOrder(t, "ORD-1")

	rec := s.do(postForm("/delete/404", url.Values{}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	orders, err := s.repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestUpdateStatusSucceeds(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t, "ORD-1")

	rec := s.do(postJSON("/update-status/"+strconv.FormatInt(order.ID, 10), `{"status":"Processing"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "Status updated successfully", body["message"])

	stored, err := s.repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusProcessing, stored.Status)
}

func TestUpdateStatusMissingStatus(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t, "ORD-1")

	rec := s.do(postJSON("/update-status/"+strconv.FormatInt(order.ID, 10), `{}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "Status is required", body["message"])
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t, "ORD-1")

	rec := s.do(postJSON("/update-status/"+strconv.FormatInt(order.ID, 10), `{"status":"Shipped"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(postJSON("/update-status/404", `{"status":"Processing"}`))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
}

func TestAPIListOrders(t *testing.T) {
	s := newTestServer(t)
	s.createOrder(t, "ORD-1")
	s.createOrder(t, "ORD-2")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			OrderNumber string `json:"order_number"`
			Total       string `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Data, 2)
}

func TestAPIGetOrder(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t, "ORD-1")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/orders/"+strconv.FormatInt(order.ID, 10), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ORD-1")
	require.Contains(t, rec.Body.String(), "29.97")
}

func TestAPIGetOrderInvalidID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/orders/abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIGetOrderNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/orders/404", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
