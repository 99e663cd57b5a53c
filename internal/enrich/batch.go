package enrich

import (
	"fmt"
)

// BatchState is a step in the life of one enrichment batch.
type BatchState int

const (
	StatePending BatchState = iota
	StateRelationRequested
	StateRelationResolved
	StateClarityRequested
	StateClarityResolved
	StateMerged
)

func (s BatchState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRelationRequested:
		return "relation_requested"
	case StateRelationResolved:
		return "relation_resolved"
	case StateClarityRequested:
		return "clarity_requested"
	case StateClarityResolved:
		return "clarity_resolved"
	case StateMerged:
		return "merged"
	default:
		return fmt.Sprintf("BatchState(%d)", int(s))
	}
}

// Batch tracks the model results for rows [Start, End).
// A nil Relation or Clarity slice means that call failed for the whole batch.
type Batch struct {
	Index int
	Start int
	End   int
	State BatchState

	Relation []*bool
	Clarity  []ClarityResult

	RelationErr error
	ClarityErr  error
}

// Len returns the number of rows in the batch.
func (b *Batch) Len() int { return b.End - b.Start }

// advance moves the batch to the next state. States only move forward by one.
func (b *Batch) advance(to BatchState) error {
	if to != b.State+1 || to > StateMerged {
		return fmt.Errorf("batch %d: invalid transition %s -> %s", b.Index, b.State, to)
	}
	b.State = to
	return nil
}
