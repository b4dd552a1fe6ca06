package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.employees.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range list {
			encodeEmployee(e, &list[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employees.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeEmployee(e, emp) })
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	in, err := decodeEmployeeInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	emp, err := h.employees.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/employees/"+emp.ID)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeEmployee(e, emp) })
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	in, err := decodeEmployeeInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	emp, err := h.employees.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeEmployee(e, emp) })
}

func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
