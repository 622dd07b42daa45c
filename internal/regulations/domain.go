package regulations

import "time"

// Regulation is an entry in the regulatory library, e.g. a framework or
// statute projects map their controls against.
type Regulation struct {
	ID        int64
	Code      string
	Title     string
	Authority string
	CreatedAt time.Time
	UpdatedAt time.Time
}
