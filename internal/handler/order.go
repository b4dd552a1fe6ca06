package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/office-lunch/internal/domain/order"
)

// IdempotencyKeyHeader makes POST /api/orders safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		orders = order.Filter(orders, q)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// quoteOrder prices and settles a draft without saving it.
func (h *Handler) quoteOrder(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.Quote(r.Context(), d)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	o, replayed, err := h.orders.CreateOnce(r.Context(), r.Header.Get(IdempotencyKeyHeader), d)
	if err != nil {
		fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
		w.Header().Set("Idempotent-Replayed", "true")
	}
	w.Header().Set("Location", "/api/orders/"+o.ID)
	writeJSON(w, status, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.Update(r.Context(), r.PathValue("id"), d)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
