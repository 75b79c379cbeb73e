// Package contacts reads tabular contact files and decides which
// recipients are eligible for an outbound batch.
package contacts

// Status labels used in the contact sheet. The set is open: any label
// other than StatusContacted leaves the row eligible.
const (
	StatusPending   = "Aguardando"
	StatusContacted = "Contatado"
	StatusFailed    = "Erro"
)

// Record is one normalized contact row. Row is the zero-based data-row
// index in the source file, kept so outcomes can be mapped back to the
// sheet even after filtering dropped other rows. Records are never
// mutated during a batch.
type Record struct {
	Row    int
	Name   string
	Email  string
	Status string
}

// Eligible reports whether the record should enter the outbound set:
// not yet contacted and with a non-empty address.
func (r Record) Eligible() bool {
	return r.Status != StatusContacted && r.Email != ""
}
