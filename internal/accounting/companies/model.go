package companies

import "time"

// Company is the tenant boundary; every ledger entity is scoped to one.
// Company master-data mutation belongs to setup tooling, so this package
// only reads.
type Company struct {
	ID        int64
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
