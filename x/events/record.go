/*
Package events implements the append-only audit trail of a wallet.

Every state transition (deposit, submission, confirmation, revocation,
execution) appends one Record in the same unit of work as the transition
itself, so a rolled back operation leaves no record behind. Records are
never updated nor removed and the wallet never reads its own log to make a
decision: the log exists for auditors and observers only.
*/
package events

import (
	"fmt"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
)

// Kind tells what transition a record describes.
type Kind string

const (
	KindDeposit          Kind = "deposit"
	KindSubmit           Kind = "submit"
	KindConfirm          Kind = "confirm"
	KindRevoke           Kind = "revoke"
	KindExecute          Kind = "execute"
	KindExecutionFailure Kind = "execution_failure"
)

// Record is a single entry of the log. Which fields are set depends on the
// kind, see the constructors.
type Record struct {
	// Seq is the position in the log, assigned on append.
	Seq  uint64 `json:"seq"`
	Kind Kind   `json:"kind"`
	// Principal is the caller, or the sender of a deposit.
	Principal  threshold.Address `json:"principal"`
	ProposalID uint64            `json:"proposal_id,omitempty"`
	Target     threshold.Address `json:"target,omitempty"`
	// Value is the proposal value, or the deposited amount.
	Value   uint64 `json:"value,omitempty"`
	Payload []byte `json:"payload,omitempty"`
	// Balance is the custody balance after a deposit.
	Balance uint64 `json:"balance,omitempty"`
	// Reason describes why an execution failed.
	Reason string `json:"reason,omitempty"`
}

// Deposit records value moved into the custody of the wallet.
func Deposit(sender threshold.Address, amount, balance uint64) Record {
	return Record{Kind: KindDeposit, Principal: sender, Value: amount, Balance: balance}
}

// Submit records a new proposal.
func Submit(principal threshold.Address, id uint64, target threshold.Address, value uint64, payload []byte) Record {
	return Record{
		Kind:       KindSubmit,
		Principal:  principal,
		ProposalID: id,
		Target:     target,
		Value:      value,
		Payload:    payload,
	}
}

// Confirm records a principal approving a proposal.
func Confirm(principal threshold.Address, id uint64) Record {
	return Record{Kind: KindConfirm, Principal: principal, ProposalID: id}
}

// Revoke records a principal withdrawing its approval.
func Revoke(principal threshold.Address, id uint64) Record {
	return Record{Kind: KindRevoke, Principal: principal, ProposalID: id}
}

// Execute records the successful, final execution of a proposal.
func Execute(principal threshold.Address, id uint64) Record {
	return Record{Kind: KindExecute, Principal: principal, ProposalID: id}
}

// ExecutionFailure records an execution attempt whose action failed and
// whose effects were rolled back.
func ExecutionFailure(principal threshold.Address, id uint64, reason string) Record {
	return Record{Kind: KindExecutionFailure, Principal: principal, ProposalID: id, Reason: reason}
}

// Validate is called before a record is appended.
func (r *Record) Validate() error {
	switch r.Kind {
	case KindDeposit, KindSubmit, KindConfirm, KindRevoke, KindExecute, KindExecutionFailure:
	default:
		return errors.Wrapf(errors.ErrInput, "unknown event kind %q", r.Kind)
	}
	if err := r.Principal.Validate(); err != nil {
		return errors.Wrap(err, "principal")
	}
	if r.Kind == KindSubmit {
		if err := r.Target.Validate(); err != nil {
			return errors.Wrap(err, "target")
		}
	}
	return nil
}

func (r Record) String() string {
	switch r.Kind {
	case KindDeposit:
		return fmt.Sprintf("#%d deposit sender=%s amount=%d balance=%d", r.Seq, r.Principal, r.Value, r.Balance)
	case KindSubmit:
		return fmt.Sprintf("#%d submit principal=%s proposal=%d target=%s value=%d payload=%X",
			r.Seq, r.Principal, r.ProposalID, r.Target, r.Value, r.Payload)
	case KindExecutionFailure:
		return fmt.Sprintf("#%d execution_failure principal=%s proposal=%d reason=%q", r.Seq, r.Principal, r.ProposalID, r.Reason)
	default:
		return fmt.Sprintf("#%d %s principal=%s proposal=%d", r.Seq, r.Kind, r.Principal, r.ProposalID)
	}
}
