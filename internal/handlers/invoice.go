package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/invoice-manager/internal/auth"
	"github.com/diewo77/invoice-manager/internal/export"
	gatepkg "github.com/diewo77/invoice-manager/internal/gate"
	"github.com/diewo77/invoice-manager/internal/httpx"
	"github.com/diewo77/invoice-manager/internal/middleware"
	"github.com/diewo77/invoice-manager/internal/models"
	"github.com/diewo77/invoice-manager/internal/policy"
	"github.com/diewo77/invoice-manager/internal/services"
	"github.com/diewo77/invoice-manager/internal/view"
)

// InvoiceHandler serves the invoice CRUD and export surface, dual-format
// (JSON or HTML) on every route. Every request is gated before any data is
// touched; reads load first so a denied request answers 403, not 404.
type InvoiceHandler struct {
	Gate     *gatepkg.Gate[models.Actor]
	Query    *services.InvoiceQuery
	Svc      *services.InvoiceService
	Renderer export.Renderer
	PageSize int
}

func NewInvoiceHandler(g *gatepkg.Gate[models.Actor], q *services.InvoiceQuery, svc *services.InvoiceService, r export.Renderer, pageSize int) *InvoiceHandler {
	if pageSize < 1 {
		pageSize = services.DefaultPageSize
	}
	return &InvoiceHandler{Gate: g, Query: q, Svc: svc, Renderer: r, PageSize: pageSize}
}

// List: GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), actor, gatepkg.ActionList, policy.ResourceInvoice, nil); err != nil {
		writeError(w, r, err, "/")
		return
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", h.PageSize)
	result, err := h.Query.List(actor, page, pageSize)
	if err != nil {
		writeError(w, r, err, "/")
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, result)
		return
	}
	_ = view.Render(w, r, "invoices/index.html", map[string]any{
		"Invoices": result.Items,
		"Total":    result.Total,
		"Page":     result.Page,
		"PageSize": result.PageSize,
		"HasPrev":  result.Page > 1,
		"HasNext":  int64(result.Page)*int64(result.PageSize) < result.Total,
		"PrevPage": result.Page - 1,
		"NextPage": result.Page + 1,
		"Flash":    middleware.PopFlash(w, r),
	})
}

// New: GET /invoices/new – form prefilled with defaults and the likely
// next invoice number.
func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), actor, gatepkg.ActionCreate, policy.ResourceInvoice, nil); err != nil {
		writeError(w, r, err, "/invoices")
		return
	}
	next, err := h.Query.NextNumber()
	if err != nil {
		writeError(w, r, err, "/invoices")
		return
	}
	today := time.Now().Format("2006-01-02")
	due := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"next_number": next, "invoice_date": today, "due_date": due})
		return
	}
	_ = view.Render(w, r, "invoices/form.html", map[string]any{
		"NextNumber": next,
		"Input":      services.InvoiceInput{InvoiceDate: today, DueDate: due},
		"Errors":     map[string]string{},
	})
}

// Create: POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), actor, gatepkg.ActionCreate, policy.ResourceInvoice, nil); err != nil {
		writeError(w, r, err, "/invoices")
		return
	}
	in, err := decodeInvoiceInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
		return
	}
	inv, err := h.Svc.Create(actor.ID, in)
	if err != nil {
		h.writeInvoiceError(w, r, err, in, nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, inv)
		return
	}
	middleware.Flash(w, r, "invoice_created")
	http.Redirect(w, r, fmt.Sprintf("/invoices/%d", inv.ID), http.StatusSeeOther)
}

// Show: GET /invoices/{id}
func (h *InvoiceHandler) Show(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gatepkg.ActionView)
	if !ok {
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	_ = view.Render(w, r, "invoices/show.html", map[string]any{
		"Invoice": inv,
		"Flash":   middleware.PopFlash(w, r),
	})
}

// Edit: GET /invoices/{id}/edit
func (h *InvoiceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gatepkg.ActionUpdate)
	if !ok {
		return
	}
	_ = view.Render(w, r, "invoices/form.html", map[string]any{
		"Invoice": inv,
		"Input":   inputFromInvoice(inv),
		"Errors":  map[string]string{},
	})
}

// Update: PUT/POST /invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gatepkg.ActionUpdate)
	if !ok {
		return
	}
	in, err := decodeInvoiceInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
		return
	}
	updated, err := h.Svc.Update(inv, in)
	if err != nil {
		h.writeInvoiceError(w, r, err, in, inv)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, updated)
		return
	}
	middleware.Flash(w, r, "invoice_updated")
	http.Redirect(w, r, fmt.Sprintf("/invoices/%d", updated.ID), http.StatusSeeOther)
}

// Delete: DELETE/POST /invoices/{id}/delete
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gatepkg.ActionDelete)
	if !ok {
		return
	}
	if err := h.Svc.Delete(inv); err != nil {
		writeError(w, r, err, "/invoices")
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}
	middleware.Flash(w, r, "invoice_deleted")
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}

// Export: GET /invoices/{id}/export?format=html|pdf
func (h *InvoiceHandler) Export(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gatepkg.ActionView)
	if !ok {
		return
	}
	format := export.Format(r.URL.Query().Get("format"))
	doc, err := h.Renderer.Render(documentFromInvoice(inv), format)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unsupported_format", nil)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}

// load fetches the invoice for the {id} path value and gates the action.
// Responds itself and returns false when the request can't proceed.
func (h *InvoiceHandler) load(w http.ResponseWriter, r *http.Request, action gatepkg.Action) (*models.Invoice, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, services.ErrNotFound, "/invoices")
		return nil, false
	}
	inv, err := h.Query.Get(id)
	if err != nil {
		writeError(w, r, err, "/invoices")
		return nil, false
	}
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), actor, action, policy.ResourceInvoice, inv); err != nil {
		writeError(w, r, err, "/invoices")
		return nil, false
	}
	return inv, true
}

// writeInvoiceError is writeError plus form re-rendering: an HTML client with
// a validation failure gets the form back with its input and field errors.
func (h *InvoiceHandler) writeInvoiceError(w http.ResponseWriter, r *http.Request, err error, in services.InvoiceInput, inv *models.Invoice) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) && !httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = view.Render(w, r, "invoices/form.html", map[string]any{
			"Invoice": inv,
			"Input":   in,
			"Errors":  vErr.Fields,
		})
		return
	}
	writeError(w, r, err, "/invoices")
}

// inputFromInvoice rebuilds the form input from a stored invoice.
func inputFromInvoice(inv *models.Invoice) services.InvoiceInput {
	in := services.InvoiceInput{
		SenderName:      inv.SenderName,
		SenderEmail:     inv.SenderEmail,
		SenderPhone:     inv.SenderPhone,
		SenderAddress:   inv.SenderAddress,
		CustomerName:    inv.CustomerName,
		CustomerEmail:   inv.CustomerEmail,
		CustomerPhone:   inv.CustomerPhone,
		CustomerAddress: inv.CustomerAddress,
		InvoiceDate:     inv.InvoiceDate.Format("2006-01-02"),
		DueDate:         inv.DueDate.Format("2006-01-02"),
		TaxRate:         inv.TaxRate.StringFixed(2),
		DiscountRate:    inv.DiscountRate.StringFixed(2),
		Notes:           inv.Notes,
		Status:          string(inv.Status),
	}
	for _, it := range inv.Items {
		in.Items = append(in.Items, services.ItemInput{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
		})
	}
	return in
}

// documentFromInvoice maps a stored invoice onto the export view-model with
// all amounts preformatted.
func documentFromInvoice(inv *models.Invoice) export.InvoiceDocument {
	money := func(d decimal.Decimal) string { return d.StringFixed(2) }
	doc := export.InvoiceDocument{
		Number:      inv.InvoiceNumber,
		Status:      string(inv.Status),
		InvoiceDate: inv.InvoiceDate.Format("2006-01-02"),
		DueDate:     inv.DueDate.Format("2006-01-02"),
		Sender: export.Party{
			Name:    inv.SenderName,
			Email:   inv.SenderEmail,
			Phone:   inv.SenderPhone,
			Address: inv.SenderAddress,
		},
		Customer: export.Party{
			Name:    inv.CustomerName,
			Email:   inv.CustomerEmail,
			Phone:   inv.CustomerPhone,
			Address: inv.CustomerAddress,
		},
		Subtotal:       money(inv.Subtotal),
		TaxRate:        inv.TaxRate.StringFixed(2),
		TaxAmount:      money(inv.TaxAmount),
		DiscountRate:   inv.DiscountRate.StringFixed(2),
		DiscountAmount: money(inv.DiscountAmount),
		Total:          money(inv.Total),
		Notes:          inv.Notes,
	}
	for _, it := range inv.Items {
		doc.Items = append(doc.Items, export.Line{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   money(it.UnitPrice),
			Total:       money(it.Total),
		})
	}
	return doc
}
