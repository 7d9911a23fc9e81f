// Package export turns a fully computed invoice view-model into a
// downloadable document. The renderer computes nothing: totals and line
// amounts arrive preformatted and final.
package export

import (
	"bytes"
	"fmt"
	"html/template"
)

// Format selects the output flavor.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Party is a sender or customer block on the document.
type Party struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Line is one rendered line item.
type Line struct {
	Description string
	Quantity    int
	UnitPrice   string
	Total       string
}

// InvoiceDocument is the read-only view-model handed to the renderer.
type InvoiceDocument struct {
	Number         string
	Status         string
	InvoiceDate    string
	DueDate        string
	Sender         Party
	Customer       Party
	Items          []Line
	Subtotal       string
	TaxRate        string
	TaxAmount      string
	DiscountRate   string
	DiscountAmount string
	Total          string
	Notes          string
}

// Document is the rendered result.
type Document struct {
	Bytes       []byte
	ContentType string
	Filename    string
}

// Renderer renders an invoice view-model into a downloadable document.
type Renderer interface {
	Render(doc InvoiceDocument, format Format) (*Document, error)
}

// TemplateRenderer renders the document as styled HTML. The PDF format
// serves the same markup labelled application/pdf; a real PDF pipeline can
// replace this implementation without touching any caller.
type TemplateRenderer struct {
	tpl *template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	tpl, err := template.New("invoice").Parse(documentTemplate)
	if err != nil {
		return nil, err
	}
	return &TemplateRenderer{tpl: tpl}, nil
}

func (r *TemplateRenderer) Render(doc InvoiceDocument, format Format) (*Document, error) {
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}
	out := &Document{Bytes: buf.Bytes()}
	switch format {
	case FormatPDF:
		out.ContentType = "application/pdf"
		out.Filename = "invoice-" + doc.Number + ".pdf"
	case FormatHTML, "":
		out.ContentType = "text/html; charset=utf-8"
		out.Filename = "invoice-" + doc.Number + ".html"
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
	return out, nil
}

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { width: 100%; border-collapse: collapse; margin-top: 1em; }
th, td { border-bottom: 1px solid #ddd; padding: 6px 8px; text-align: left; }
td.amount, th.amount { text-align: right; }
.totals { margin-top: 1em; width: 40%; margin-left: auto; }
.parties { display: flex; gap: 4em; }
.status { text-transform: uppercase; color: #666; }
</style>
</head>
<body>
<h1>Invoice {{.Number}} <span class="status">{{.Status}}</span></h1>
<p>Date: {{.InvoiceDate}} &mdash; Due: {{.DueDate}}</p>
<div class="parties">
<div>
<h3>From</h3>
<p>{{.Sender.Name}}<br>{{.Sender.Email}}{{if .Sender.Phone}}<br>{{.Sender.Phone}}{{end}}<br>{{.Sender.Address}}</p>
</div>
<div>
<h3>Bill To</h3>
<p>{{.Customer.Name}}{{if .Customer.Email}}<br>{{.Customer.Email}}{{end}}{{if .Customer.Phone}}<br>{{.Customer.Phone}}{{end}}<br>{{.Customer.Address}}</p>
</div>
</div>
<table>
<tr><th>Description</th><th class="amount">Qty</th><th class="amount">Unit Price</th><th class="amount">Total</th></tr>
{{range .Items}}<tr><td>{{.Description}}</td><td class="amount">{{.Quantity}}</td><td class="amount">{{.UnitPrice}}</td><td class="amount">{{.Total}}</td></tr>
{{end}}</table>
<table class="totals">
<tr><td>Subtotal</td><td class="amount">{{.Subtotal}}</td></tr>
<tr><td>Tax ({{.TaxRate}}%)</td><td class="amount">{{.TaxAmount}}</td></tr>
<tr><td>Discount ({{.DiscountRate}}%)</td><td class="amount">-{{.DiscountAmount}}</td></tr>
<tr><th>Total</th><th class="amount">{{.Total}}</th></tr>
</table>
{{if .Notes}}<h3>Notes</h3><p>{{.Notes}}</p>{{end}}
</body>
</html>
`
