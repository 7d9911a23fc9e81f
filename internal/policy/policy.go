package policy

import (
	"github.com/diewo77/invoice-manager/internal/gate"
	"github.com/diewo77/invoice-manager/internal/models"
)

// Resource type names registered on the gate.
const (
	ResourceInvoice = "invoice"
	ResourceUser    = "user"
)

// NewGate builds the application gate with every resource policy registered.
// This is the single authorization checkpoint: handlers call Authorize at the
// top of every request, before any mutation.
//
//   - invoice: admin or owner
//   - user:    admin only
func NewGate() *gate.Gate[models.Actor] {
	g := gate.NewGate[models.Actor]()
	g.Register(ResourceInvoice, NewAdminBypassPolicy(NewOwnershipPolicy()))
	g.Register(ResourceUser, NewAdminOnlyPolicy())
	return g
}
