package policy_merging

import "strings"

// AppOwnerPlaceholder fills the AppOwner column until ownership data has a
// real source of truth.
const AppOwnerPlaceholder = "a123456"

// ReportHeader is the fixed CSV column set.
var ReportHeader = []string{"First_Name", "Last_Name", "UniqueID", "Entitlement", "Email", "AppOwner"}

// Entitlement is the per-identity aggregation record: one per distinct
// identity key, entitlement strings in first-seen order.
type Entitlement struct {
	FirstName    string
	LastName     string
	UniqueID     string
	Email        string
	Entitlements []string
	AppOwner     string
}

// Report holds the aggregation map plus the first-seen ordering of
// identity keys, so row output is deterministic.
type Report struct {
	records map[string]*Entitlement
	order   []string
}

func NewReport() *Report {
	return &Report{records: make(map[string]*Entitlement)}
}

// Has reports whether an identity key already owns a record.
func (r *Report) Has(key string) bool {
	_, ok := r.records[key]
	return ok
}

// Upsert returns the identity's record, creating it on first sighting.
func (r *Report) Upsert(principal Principal, uniqueID string) *Entitlement {
	if record, ok := r.records[principal.Email]; ok {
		return record
	}
	record := &Entitlement{
		FirstName: principal.FirstName,
		LastName:  principal.LastName,
		UniqueID:  uniqueID,
		Email:     principal.Email,
		AppOwner:  AppOwnerPlaceholder,
	}
	r.records[principal.Email] = record
	r.order = append(r.order, principal.Email)
	return record
}

// Get returns the record for an identity key, nil when absent.
func (r *Report) Get(key string) *Entitlement {
	return r.records[key]
}

// Len is the number of retained identities.
func (r *Report) Len() int {
	return len(r.records)
}

// Rows flattens the report into CSV rows, one per identity in first-seen
// order, the entitlement list joined with ";".
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.order))
	for _, key := range r.order {
		record := r.records[key]
		rows = append(rows, []string{
			record.FirstName,
			record.LastName,
			record.UniqueID,
			strings.Join(record.Entitlements, ";"),
			record.Email,
			record.AppOwner,
		})
	}
	return rows
}
