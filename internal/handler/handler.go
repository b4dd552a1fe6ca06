// Package handler serves the JSON HTTP API used by the lunch ledger UI.
package handler

import (
	"net/http"
	"time"

	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
	"github.com/xenking/office-lunch/internal/domain/order"
	"github.com/xenking/office-lunch/internal/domain/report"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler maps HTTP requests onto the domain services.
type Handler struct {
	employees *employee.Service
	menu      *menu.Service
	orders    *order.Service
	reports   *report.Service
	now       func() time.Time
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	employees *employee.Service,
	menuItems *menu.Service,
	orders *order.Service,
	reports *report.Service,
) *Handler {
	return &Handler{
		employees: employees,
		menu:      menuItems,
		orders:    orders,
		reports:   reports,
		now:       time.Now,
	}
}

// Register mounts every API route on mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/employees", h.listEmployees)
	mux.HandleFunc("POST /api/employees", h.createEmployee)
	mux.HandleFunc("GET /api/employees/{id}", h.getEmployee)
	mux.HandleFunc("PUT /api/employees/{id}", h.updateEmployee)
	mux.HandleFunc("DELETE /api/employees/{id}", h.deleteEmployee)

	mux.HandleFunc("GET /api/menu-items", h.listMenuItems)
	mux.HandleFunc("POST /api/menu-items", h.createMenuItem)
	mux.HandleFunc("GET /api/menu-items/{id}", h.getMenuItem)
	mux.HandleFunc("PUT /api/menu-items/{id}", h.updateMenuItem)
	mux.HandleFunc("DELETE /api/menu-items/{id}", h.deleteMenuItem)

	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("POST /api/orders/quote", h.quoteOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}", h.updateOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", h.deleteOrder)

	mux.HandleFunc("GET /api/dashboard", h.dashboard)
	mux.HandleFunc("GET /api/reports/cash-on-hand", h.cashOnHand)
	mux.HandleFunc("GET /api/reports/intermediary-debt", h.intermediaryDebt)
	mux.HandleFunc("GET /api/reports/employee-debt", h.employeeDebt)
	mux.HandleFunc("GET /api/reports/items", h.itemsSummary)
}
