package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
	"github.com/xenking/office-lunch/internal/domain/order"
	"github.com/xenking/office-lunch/internal/domain/report"
)

// --- In-memory repositories ---

type memEmployees struct {
	mu   sync.Mutex
	byID map[string]employee.Employee
}

func (m *memEmployees) List(context.Context) ([]employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]employee.Employee, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b employee.Employee) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memEmployees) Get(_ context.Context, id string) (*employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return nil, employee.ErrNotFound
	}
	return &e, nil
}

func (m *memEmployees) Create(_ context.Context, e *employee.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CreatedAt = testNow
	e.UpdatedAt = testNow
	m.byID[e.ID] = *e
	return nil
}

func (m *memEmployees) Update(ctx context.Context, e *employee.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[e.ID]; !ok {
		return employee.ErrNotFound
	}
	m.byID[e.ID] = *e
	return nil
}

func (m *memEmployees) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return employee.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memMenu struct {
	mu   sync.Mutex
	byID map[string]menu.Item
}

func (m *memMenu) List(context.Context) ([]menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]menu.Item, 0, len(m.byID))
	for _, it := range m.byID {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b menu.Item) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *memMenu) Get(_ context.Context, id string) (*menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.byID[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &it, nil
}

func (m *memMenu) GetByIDs(_ context.Context, ids []string) ([]menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []menu.Item
	for _, id := range ids {
		if it, ok := m.byID[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memMenu) Create(_ context.Context, it *menu.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[it.ID] = *it
	return nil
}

func (m *memMenu) Update(_ context.Context, it *menu.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[it.ID]; !ok {
		return menu.ErrNotFound
	}
	m.byID[it.ID] = *it
	return nil
}

func (m *memMenu) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return menu.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memOrders struct {
	mu      sync.Mutex
	byID    map[string]order.Order
	listErr error
}

func (m *memOrders) List(context.Context) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]order.Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b order.Order) int { return b.OrderDate.Compare(a.OrderDate) })
	return out, nil
}

func (m *memOrders) Get(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.CreatedAt = testNow
	o.UpdatedAt = testNow
	m.byID[o.ID] = *o
	return nil
}

func (m *memOrders) Update(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[o.ID]; !ok {
		return order.ErrNotFound
	}
	m.byID[o.ID] = *o
	return nil
}

func (m *memOrders) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return order.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memIdempotency struct {
	mu     sync.Mutex
	locks  map[string]bool
	result map[string]string
}

func (m *memIdempotency) TryLock(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *memIdempotency) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *memIdempotency) Remember(_ context.Context, key, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result[key] = id
	return nil
}

func (m *memIdempotency) Recall(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.result[key]
	return id, ok, nil
}

// --- Helpers ---

var testNow = time.Date(2026, 5, 4, 13, 0, 0, 0, time.UTC)

type fixture struct {
	mux    *http.ServeMux
	orders *memOrders
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	emps := &memEmployees{byID: map[string]employee.Employee{
		"e1": {ID: "e1", Name: "Asha", Active: true},
		"e2": {ID: "e2", Name: "Ravi", Active: true},
		"e3": {ID: "e3", Name: "Kabir", Active: false},
	}}
	items := &memMenu{byID: map[string]menu.Item{
		"m1": {ID: "m1", Name: "Thali", Price: decimal.RequireFromString("120")},
		"m2": {ID: "m2", Name: "Chai", Price: decimal.RequireFromString("15")},
	}}
	orders := &memOrders{byID: map[string]order.Order{}}
	idem := &memIdempotency{locks: map[string]bool{}, result: map[string]string{}}

	core, logs := observer.New(zap.InfoLevel)
	lg := zap.New(core)

	h := NewHandler(
		employee.NewService(emps),
		menu.NewService(items),
		order.NewService(emps, items, orders, order.WithIdempotency(idem)),
		report.NewService(orders, emps, items, report.New(lg)),
	)
	h.now = func() time.Time { return testNow }

	mux := http.NewServeMux()
	h.Register(mux)

	// Handlers read their logger from the request context.
	root := http.NewServeMux()
	root.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(zctx.Base(r.Context(), lg)))
	}))
	return &fixture{mux: root, orders: orders, logs: logs}
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeArray(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const ashaOrder = `{
	"employeeId": "e1",
	"items": [{"menuItemId": "m1", "quantity": 1}, {"menuItemId": "m2", "quantity": 2}],
	"amountPaid": 200,
	"amountReturned": 40
}`

// --- Tests ---

func TestEmployeesCRUD(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/employees", `{"name":"  Meera ","contact":"EMP-9"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeObject(t, w)
	id := created["id"].(string)
	assert.Equal(t, "Meera", created["name"])
	assert.Equal(t, true, created["active"])
	assert.Equal(t, "/api/employees/"+id, w.Header().Get("Location"))

	w = f.do(t, http.MethodPut, "/api/employees/"+id, `{"name":"Meera Iyer","active":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decodeObject(t, w)["active"])

	w = f.do(t, http.MethodGet, "/api/employees", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeArray(t, w), 4)

	w = f.do(t, http.MethodDelete, "/api/employees/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/employees/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"employee not found"}`, w.Body.String())
}

func TestEmployeeValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "empty name", body: `{"name":"   "}`, msg: "name: must not be empty"},
		{name: "wrong type", body: `{"name":"A","active":"yes"}`, msg: "active: must be a boolean"},
		{name: "malformed", body: `{"name":`, msg: "body: malformed JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/employees", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.msg, decodeObject(t, w)["message"])
		})
	}
}

func TestMenuItems(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/menu-items", `{"name":"Lassi","price":"40.5"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"price":40.50`)

	w = f.do(t, http.MethodPost, "/api/menu-items", `{"name":"Free lunch","price":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/menu-items", `{"name":"No price"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "price: price is required", decodeObject(t, w)["message"])

	w = f.do(t, http.MethodGet, "/api/menu-items", "")
	require.Equal(t, http.StatusOK, w.Code)
	names := []string{}
	for _, it := range decodeArray(t, w) {
		names = append(names, it["name"].(string))
	}
	assert.Equal(t, []string{"Chai", "Lassi", "Thali"}, names)

	w = f.do(t, http.MethodPut, "/api/menu-items/missing", `{"name":"X","price":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteOrder(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/orders/quote", ashaOrder)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Contains(t, body, `"total":150.00`)
	assert.Contains(t, body, `"changeAmount":50.00`)
	assert.Contains(t, body, `"balance":-10.00`)
	assert.Contains(t, body, `"paymentStatus":"office-credit"`)
	assert.NotContains(t, decodeObject(t, w), "id")
	assert.Empty(t, f.orders.byID)
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/orders", ashaOrder)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeObject(t, w)
	id := created["id"].(string)
	assert.Equal(t, "Asha", created["employeeName"])
	assert.Equal(t, "office-credit", created["paymentStatus"])
	assert.Equal(t, "Office Credit", created["paymentStatusLabel"])
	items := created["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, 30.0, items[1].(map[string]any)["totalPrice"])

	w = f.do(t, http.MethodGet, "/api/orders?q=ASHA", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeArray(t, w), 1)

	w = f.do(t, http.MethodGet, "/api/orders?q=ravi", "")
	assert.Empty(t, decodeArray(t, w))

	w = f.do(t, http.MethodPut, "/api/orders/"+id, `{
		"employeeId": "e1",
		"items": [{"menuItemId": "m1", "quantity": 1}, {"menuItemId": "m2", "quantity": 2}],
		"amountPaid": 200,
		"amountReturned": 50
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decodeObject(t, w)["paymentStatus"])

	w = f.do(t, http.MethodDelete, "/api/orders/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/orders/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "order not found", decodeObject(t, w)["message"])
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	f := newFixture(t)

	first := f.do(t, http.MethodPost, "/api/orders", ashaOrder, IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := f.do(t, http.MethodPost, "/api/orders", ashaOrder, IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decodeObject(t, first)["id"], decodeObject(t, second)["id"])
	assert.Len(t, f.orders.byID, 1)
}

func TestCreateOrderErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{
			name:   "malformed",
			body:   `{"employeeId":`,
			status: http.StatusBadRequest,
			msg:    "body: malformed JSON",
		},
		{
			name:   "no items",
			body:   `{"employeeId":"e1","items":[],"amountPaid":0}`,
			status: http.StatusBadRequest,
			msg:    "items: at least one item is required",
		},
		{
			name:   "quantity not integer",
			body:   `{"employeeId":"e1","items":[{"menuItemId":"m1","quantity":"two"}]}`,
			status: http.StatusBadRequest,
			msg:    "items[0].quantity: must be an integer",
		},
		{
			name:   "zero quantity",
			body:   `{"employeeId":"e1","items":[{"menuItemId":"m1","quantity":0}]}`,
			status: http.StatusBadRequest,
			msg:    "items[0].quantity: must be greater than 0",
		},
		{
			name:   "negative payment",
			body:   `{"employeeId":"e1","items":[{"menuItemId":"m1","quantity":1}],"amountPaid":-5}`,
			status: http.StatusBadRequest,
			msg:    "amountPaid: must not be negative",
		},
		{
			name:   "bad date",
			body:   `{"employeeId":"e1","items":[{"menuItemId":"m1","quantity":1}],"orderDate":"yesterday"}`,
			status: http.StatusBadRequest,
			msg:    "orderDate: must be an RFC 3339 timestamp or a date",
		},
		{
			name:   "unknown employee",
			body:   `{"employeeId":"ghost","items":[{"menuItemId":"m1","quantity":1}]}`,
			status: http.StatusUnprocessableEntity,
			msg:    "employee ghost not found",
		},
		{
			name:   "inactive employee",
			body:   `{"employeeId":"e3","items":[{"menuItemId":"m1","quantity":1}]}`,
			status: http.StatusBadRequest,
			msg:    "employeeId: employee is not active",
		},
		{
			name:   "unknown menu item",
			body:   `{"employeeId":"e1","items":[{"menuItemId":"gone","quantity":1}]}`,
			status: http.StatusUnprocessableEntity,
			msg:    "menu item gone not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/orders", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decodeObject(t, w)["message"])
		})
	}
	assert.Empty(t, f.orders.byID)
}

func TestInternalErrorIsHidden(t *testing.T) {
	f := newFixture(t)
	f.orders.listErr = errors.New("connection reset by peer")

	w := f.do(t, http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"internal error"}`, w.Body.String())

	logged := f.logs.FilterMessage("Request failed").All()
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0].ContextMap()["error"], "connection reset by peer")
}

func seedOrders(t *testing.T, f *fixture) {
	t.Helper()
	bodies := []string{
		// Exact change: completed, 150 cash.
		`{"employeeId":"e1","items":[{"menuItemId":"m1","quantity":1},{"menuItemId":"m2","quantity":2}],"amountPaid":200,"amountReturned":50,"orderDate":"2026-05-04T09:00:00Z"}`,
		// Intermediary still owes 10.
		`{"employeeId":"e1","items":[{"menuItemId":"m1","quantity":1},{"menuItemId":"m2","quantity":2}],"amountPaid":200,"amountReturned":40,"orderDate":"2026-05-04T10:00:00Z"}`,
		// Employee paid 100 for 135 and got nothing back: owes 35.
		`{"employeeId":"e2","items":[{"menuItemId":"m1","quantity":1},{"menuItemId":"m2","quantity":1}],"amountPaid":100,"amountReturned":0,"orderDate":"2026-05-01"}`,
	}
	for _, b := range bodies {
		w := f.do(t, http.MethodPost, "/api/orders", b)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	seedOrders(t, f)

	w := f.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decodeObject(t, w)
	assert.Equal(t, 2.0, got["ordersToday"])
	assert.Equal(t, 2.0, got["activeEmployees"])
	assert.Equal(t, 2.0, got["menuItems"])
	assert.Equal(t, 10.0, got["intermediaryDebt"])
	assert.Equal(t, 35.0, got["employeeDebt"])
	assert.Equal(t, 400.0, got["cashOnHand"])
	assert.Equal(t, 1.0, got["employeesWithDebt"])
	assert.Len(t, got["recentOrders"], 3)
}

func TestReports(t *testing.T) {
	f := newFixture(t)
	seedOrders(t, f)

	w := f.do(t, http.MethodGet, "/api/reports/intermediary-debt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":10.00,"byEmployee":[{"employeeName":"Asha","amount":10.00}]}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/reports/employee-debt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":35.00,"byEmployee":[{"employeeName":"Ravi","amount":35.00}]}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/reports/cash-on-hand", "")
	require.Equal(t, http.StatusOK, w.Code)
	cash := decodeObject(t, w)
	assert.Equal(t, 400.0, cash["total"])
	assert.Len(t, cash["details"], 3)

	w = f.do(t, http.MethodGet, "/api/reports/items?sort=quantity", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"itemName":"Chai","quantity":5},{"itemName":"Thali","quantity":3}]`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/reports/items?sort=name", "")
	assert.JSONEq(t, `[{"itemName":"Chai","quantity":5},{"itemName":"Thali","quantity":3}]`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/reports/items?sort=price", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
