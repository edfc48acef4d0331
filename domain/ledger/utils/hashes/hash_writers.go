package hashes

import (
	"hash"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// HashWriter is used to incrementally hash data without concatenating
// all of the data to a single buffer. It must be created via one of
// the named constructors in this package, so that hashes of different
// kinds of entities never collide.
type HashWriter struct {
	hash.Hash
}

// InfallibleWrite writes the given data to the hash. The underlying
// blake2b implementation never returns an error, so one here is an
// unrecoverable defect.
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash.
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var sum [externalapi.DomainHashSize]byte
	// This should prevent `h.Sum` from allocating an output buffer.
	digest := h.Sum(sum[:0])

	copy(sum[:], digest)
	return externalapi.NewDomainHashFromByteArray(&sum)
}

func newKeyedWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}
