package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) listMenuItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range items {
			encodeMenuItem(e, &items[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.menu.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMenuItem(e, it) })
}

func (h *Handler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeMenuInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	it, err := h.menu.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/menu-items/"+it.ID)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeMenuItem(e, it) })
}

// updateMenuItem changes the current price. Orders keep their captured
// unit prices.
func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeMenuInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	it, err := h.menu.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMenuItem(e, it) })
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.menu.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
