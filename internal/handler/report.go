package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/office-lunch/internal/domain/apperr"
	"github.com/xenking/office-lunch/internal/domain/report"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard(r.Context(), h.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("cashOnHand")
		encodeMoney(e, d.CashOnHand)
		e.FieldStart("intermediaryDebt")
		encodeMoney(e, d.IntermediaryDebt)
		e.FieldStart("employeeDebt")
		encodeMoney(e, d.EmployeeDebt)
		e.FieldStart("ordersToday")
		e.Int(d.OrdersToday)
		e.FieldStart("activeEmployees")
		e.Int(d.ActiveEmployees)
		e.FieldStart("menuItems")
		e.Int(d.MenuItems)
		e.FieldStart("employeesWithDebt")
		e.Int(d.EmployeesWithDebt)
		e.FieldStart("recentOrders")
		encodeOrders(e, d.Recent)
		e.ObjEnd()
	})
}

func (h *Handler) cashOnHand(w http.ResponseWriter, r *http.Request) {
	orders, err := h.reports.Orders(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	rep := h.reports.Reporter()
	total := rep.CashOnHand(orders)
	details := rep.CashOnHandDetails(orders)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("total")
		encodeMoney(e, total)
		e.FieldStart("details")
		e.ArrStart()
		for _, c := range details {
			e.ObjStart()
			e.FieldStart("orderId")
			e.Str(c.OrderID)
			e.FieldStart("employeeName")
			e.Str(c.EmployeeName)
			e.FieldStart("amountPaid")
			encodeMoney(e, c.AmountPaid)
			e.FieldStart("changeAmount")
			encodeMoney(e, c.Change)
			e.FieldStart("cashInHand")
			encodeMoney(e, c.CashInHand)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func (h *Handler) intermediaryDebt(w http.ResponseWriter, r *http.Request) {
	orders, err := h.reports.Orders(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	rep := h.reports.Reporter()
	writeDebt(w, rep.IntermediaryDebt(orders), rep.IntermediaryDebtByEmployee(orders))
}

func (h *Handler) employeeDebt(w http.ResponseWriter, r *http.Request) {
	orders, err := h.reports.Orders(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	rep := h.reports.Reporter()
	writeDebt(w, rep.EmployeeDebt(orders), rep.EmployeeDebtByEmployee(orders))
}

func writeDebt(w http.ResponseWriter, total decimal.Decimal, byEmployee []report.DebtEntry) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("total")
		encodeMoney(e, total)
		e.FieldStart("byEmployee")
		e.ArrStart()
		for _, d := range byEmployee {
			e.ObjStart()
			e.FieldStart("employeeName")
			e.Str(d.EmployeeName)
			e.FieldStart("amount")
			encodeMoney(e, d.Amount)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// itemsSummary returns quantities per item. Without ?sort the items keep
// first-encounter order.
func (h *Handler) itemsSummary(w http.ResponseWriter, r *http.Request) {
	var sortBy report.SortBy
	switch s := report.SortBy(r.URL.Query().Get("sort")); s {
	case "":
	case report.SortByQuantity, report.SortByName:
		sortBy = s
	default:
		fail(w, r, apperr.Invalid("sort", "must be quantity or name"))
		return
	}

	orders, err := h.reports.Orders(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	items := h.reports.Reporter().ItemsSummary(orders)
	if sortBy != "" {
		items = report.SortItems(items, sortBy)
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range items {
			e.ObjStart()
			e.FieldStart("itemName")
			e.Str(it.ItemName)
			e.FieldStart("quantity")
			e.Int(it.Quantity)
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}
