package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/invoice-manager/internal/gate"
	"github.com/diewo77/invoice-manager/internal/httpx"
	"github.com/diewo77/invoice-manager/internal/middleware"
	"github.com/diewo77/invoice-manager/internal/services"
)

// pathID extracts the {id} path value as a uint. A zero return means the
// segment was missing or not a number.
func pathID(r *http.Request) (uint, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// decodeInvoiceInput reads an invoice payload from JSON or an HTML form.
// Form item rows arrive as parallel arrays (item_description, item_quantity,
// item_unit_price).
func decodeInvoiceInput(r *http.Request) (services.InvoiceInput, error) {
	var in services.InvoiceInput
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, err
		}
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.SenderName = strings.TrimSpace(r.Form.Get("sender_name"))
	in.SenderEmail = strings.TrimSpace(r.Form.Get("sender_email"))
	in.SenderPhone = strings.TrimSpace(r.Form.Get("sender_phone"))
	in.SenderAddress = strings.TrimSpace(r.Form.Get("sender_address"))
	in.CustomerName = strings.TrimSpace(r.Form.Get("customer_name"))
	in.CustomerEmail = strings.TrimSpace(r.Form.Get("customer_email"))
	in.CustomerPhone = strings.TrimSpace(r.Form.Get("customer_phone"))
	in.CustomerAddress = strings.TrimSpace(r.Form.Get("customer_address"))
	in.InvoiceDate = r.Form.Get("invoice_date")
	in.DueDate = r.Form.Get("due_date")
	in.TaxRate = r.Form.Get("tax_rate")
	in.DiscountRate = r.Form.Get("discount_rate")
	in.Notes = r.Form.Get("notes")
	in.Status = r.Form.Get("status")

	descs := r.Form["item_description"]
	qtys := r.Form["item_quantity"]
	prices := r.Form["item_unit_price"]
	for i := range descs {
		it := services.ItemInput{Description: strings.TrimSpace(descs[i])}
		if i < len(qtys) {
			it.Quantity, _ = strconv.Atoi(qtys[i])
		}
		if i < len(prices) {
			it.UnitPrice = prices[i]
		}
		// Fully blank rows come from empty form placeholders; skip them.
		if it.Description == "" && it.Quantity == 0 && it.UnitPrice == "" {
			continue
		}
		in.Items = append(in.Items, it)
	}
	return in, nil
}

// decodeUserInput reads a user payload from JSON or an HTML form.
func decodeUserInput(r *http.Request) (services.UserInput, error) {
	var in services.UserInput
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, err
		}
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.Name = strings.TrimSpace(r.Form.Get("name"))
	in.Email = strings.TrimSpace(r.Form.Get("email"))
	in.Password = r.Form.Get("password")
	in.Role = r.Form.Get("role")
	return in, nil
}

// writeError maps service and gate errors onto the HTTP surface. JSON clients
// get a structured body; HTML clients get a flash and a redirect back.
func writeError(w http.ResponseWriter, r *http.Request, err error, backTo string) {
	var vErr *services.ValidationError
	var nErr *services.NumberingError
	switch {
	case errors.As(err, &vErr):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", vErr.Fields)
			return
		}
		middleware.Flash(w, r, "validation_failed")
	case errors.Is(err, gate.ErrUnauthorized):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		middleware.Flash(w, r, "forbidden")
	case errors.Is(err, services.ErrNotFound):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.NotFound(w, r)
		return
	case errors.Is(err, services.ErrSelfDelete):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusConflict, "cannot_delete_own_account", nil)
			return
		}
		middleware.Flash(w, r, "cannot_delete_own_account")
	case errors.Is(err, services.ErrSequenceExhausted):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusServiceUnavailable, "invoice_number_retry_exceeded", nil)
			return
		}
		middleware.Flash(w, r, "invoice_number_retry_exceeded")
	case errors.As(err, &nErr):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "invoice_numbering_corrupt", nil)
			return
		}
		middleware.Flash(w, r, "internal_error")
	default:
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			return
		}
		middleware.Flash(w, r, "internal_error")
	}
	http.Redirect(w, r, backTo, http.StatusSeeOther)
}
