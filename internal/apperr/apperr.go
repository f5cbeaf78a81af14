// Package apperr holds error types shared across services.
package apperr

import "fmt"

// Partial reports that the first of a logically-paired pair of writes landed
// and the second failed, leaving persisted state inconsistent. Callers must
// log these distinctly from clean failures so a reconciliation pass can find
// them.
type Partial struct {
	Op   string // the overall operation, e.g. "checkin", "flag", "card attach"
	Done string // what already landed
	Err  error  // the failure of the second half
}

func (p *Partial) Error() string {
	return fmt.Sprintf("%s partially failed (%s landed): %v", p.Op, p.Done, p.Err)
}

func (p *Partial) Unwrap() error { return p.Err }
