package settlement

import "errors"

// ErrUnknownDecision is returned for a Decision with an unrecognized Kind.
var ErrUnknownDecision = errors.New("unknown gap-fill decision")

// DecisionKind selects how Resolve treats the residual.
type DecisionKind string

const (
	// DecisionNone commits only when the session is balanced.
	DecisionNone DecisionKind = "none"
	// DecisionCreateTransaction materializes a gap-fill transaction for the residual.
	DecisionCreateTransaction DecisionKind = "create_transaction"
	// DecisionAcceptUnbalanced commits with the residual recorded as an open difference.
	DecisionAcceptUnbalanced DecisionKind = "accept_unbalanced"
)

// Decision is the operator's answer to a residual.
type Decision struct {
	Kind        DecisionKind
	Description string // gap-fill only; empty uses the statement memo
	CategoryID  string // gap-fill only
}

// None commits a balanced session as is.
func None() Decision {
	return Decision{Kind: DecisionNone}
}

// CreateTransaction absorbs the residual into a new ledger transaction.
func CreateTransaction(description, categoryID string) Decision {
	return Decision{
		Kind:        DecisionCreateTransaction,
		Description: description,
		CategoryID:  categoryID,
	}
}

// AcceptUnbalanced commits with the residual left open.
func AcceptUnbalanced() Decision {
	return Decision{Kind: DecisionAcceptUnbalanced}
}

// ParseDecisionKind maps a wire value onto a DecisionKind. The empty string
// means DecisionNone.
func ParseDecisionKind(s string) (DecisionKind, error) {
	switch k := DecisionKind(s); k {
	case "", DecisionNone:
		return DecisionNone, nil
	case DecisionCreateTransaction, DecisionAcceptUnbalanced:
		return k, nil
	default:
		return "", ErrUnknownDecision
	}
}
