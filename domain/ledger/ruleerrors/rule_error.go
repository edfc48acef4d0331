package ruleerrors

import (
	"fmt"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrUnknownParent indicates a header whose previous-hash does not
	// resolve to a locally known header.
	ErrUnknownParent = newRuleError("ErrUnknownParent")

	// ErrBadParentHash indicates a header whose previous-hash does not
	// match the header it is verified against.
	ErrBadParentHash = newRuleError("ErrBadParentHash")

	// ErrBadDifficulty indicates a header whose declared accumulated
	// difficulty does not follow from its parent's.
	ErrBadDifficulty = newRuleError("ErrBadDifficulty")

	// ErrBadBodyHash indicates a block whose body does not hash to the
	// commitment declared in its header.
	ErrBadBodyHash = newRuleError("ErrBadBodyHash")

	// ErrNonMonotonicSlots indicates a header whose slot is not
	// strictly after its parent's.
	ErrNonMonotonicSlots = newRuleError("ErrNonMonotonicSlots")

	// ErrSlotInFuture indicates a header whose slot is after the
	// ambient current slot.
	ErrSlotInFuture = newRuleError("ErrSlotInFuture")

	// ErrWrongEpoch indicates a block that does not belong to the epoch
	// its position on the chain dictates.
	ErrWrongEpoch = newRuleError("ErrWrongEpoch")

	// ErrWrongLeader indicates a main block produced by a stakeholder
	// that is not the slot's designated leader.
	ErrWrongLeader = newRuleError("ErrWrongLeader")

	// ErrBadSignature indicates a main block whose header signature
	// does not verify against the leader's public key.
	ErrBadSignature = newRuleError("ErrBadSignature")

	// ErrBadLeaderCount indicates a genesis block whose leader list
	// length differs from the epoch slot count.
	ErrBadLeaderCount = newRuleError("ErrBadLeaderCount")

	// ErrMissingUTXOEntry indicates a transaction input that references
	// a nonexistent or already-spent output.
	ErrMissingUTXOEntry = newRuleError("ErrMissingUTXOEntry")

	// ErrOverspend indicates a transaction whose outputs exceed the sum
	// of its inputs.
	ErrOverspend = newRuleError("ErrOverspend")

	// ErrBadTransactionSignature indicates a transaction input whose
	// signature does not verify against the consumed output's
	// recipient.
	ErrBadTransactionSignature = newRuleError("ErrBadTransactionSignature")

	// ErrBadPayload indicates a consensus payload that failed
	// verification.
	ErrBadPayload = newRuleError("ErrBadPayload")

	// ErrBadCertificate indicates a delegation certificate that failed
	// verification.
	ErrBadCertificate = newRuleError("ErrBadCertificate")

	// ErrBrokenTopology indicates that the local mempool's transaction
	// dependency graph is cyclic and cannot be topologically sorted.
	ErrBrokenTopology = newRuleError("ErrBrokenTopology")
)

// RuleError identifies a structural or semantic rule violation: a
// recoverable rejection of a header or block. The caller must not
// mutate state, and may retry with different input.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface.
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface.
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// IsRuleError returns whether the given error is a rule violation, as
// opposed to an infrastructure failure.
func IsRuleError(err error) bool {
	var ruleError RuleError
	return errors.As(err, &ruleError)
}

// ErrTipMismatch signals a precondition violated between a read and a
// subsequent write: the chain tip is not where the operation expected
// it. The caller should re-fetch the tip and retry.
type ErrTipMismatch struct {
	Expected *externalapi.DomainHash
	Actual   *externalapi.DomainHash
}

// NewErrTipMismatch returns a new ErrTipMismatch wrapped in a RuleError.
func NewErrTipMismatch(expected, actual *externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: "ErrTipMismatch",
		inner:   ErrTipMismatch{Expected: expected, Actual: actual},
	})
}

func (e ErrTipMismatch) Error() string {
	return fmt.Sprintf("expected tip %s, but the tip is %s", e.Expected, e.Actual)
}

// ErrUnknownLeaders signals that leader-election data for an epoch is
// not yet available. Block creation that needs it is skipped, not
// failed.
type ErrUnknownLeaders struct {
	Epoch externalapi.EpochIndex
}

// NewErrUnknownLeaders returns a new ErrUnknownLeaders wrapped in a RuleError.
func NewErrUnknownLeaders(epoch externalapi.EpochIndex) error {
	return errors.WithStack(RuleError{
		message: "ErrUnknownLeaders",
		inner:   ErrUnknownLeaders{Epoch: epoch},
	})
}

func (e ErrUnknownLeaders) Error() string {
	return fmt.Sprintf("no slot leaders are known for epoch %d", e.Epoch)
}
