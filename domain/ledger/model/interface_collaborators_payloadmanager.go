package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// PayloadManager verifies and produces consensus payloads. The payload
// algorithm itself is pluggable; the ledger core only depends on this
// surface.
type PayloadManager interface {
	// VerifyPayloads checks the consensus payloads of the given
	// blocks. In strict mode payload entry signatures are verified as
	// well; otherwise only structure is checked.
	VerifyPayloads(strict bool, blocks []externalapi.Block) error

	// LocalPayload returns this node's payload contribution for the
	// given slot, or nil when it has nothing to contribute.
	LocalPayload(slot externalapi.SlotID) *externalapi.ConsensusPayload

	// QueueData signs the given opaque payload data and queues the
	// resulting entry for the next locally built block.
	QueueData(data []byte) error

	// ClearQueued drops all queued payload entries.
	ClearQueued()
}
