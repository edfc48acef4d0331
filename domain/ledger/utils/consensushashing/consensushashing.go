package consensushashing

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/hashes"
	"github.com/orosnet/orosd/domain/ledger/utils/serialization"
)

// HeaderHash returns the hash of the given header.
func HeaderHash(header externalapi.BlockHeader) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	writer.InfallibleWrite(serialization.SerializeHeader(header))
	return writer.Finalize()
}

// BlockHash returns the hash of the given block. A block's hash is its
// header's hash: the header commits to the body via the body
// commitment.
func BlockHash(block externalapi.Block) *externalapi.DomainHash {
	return HeaderHash(block.Header())
}

// BodyHash returns the body commitment the given block's header must
// declare.
func BodyHash(block externalapi.Block) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	switch block := block.(type) {
	case *externalapi.GenesisBlock:
		writer.InfallibleWrite(serialization.SerializeGenesisBody(block.Body))
	case *externalapi.MainBlock:
		writer.InfallibleWrite(serialization.SerializeMainBody(block.Body))
	}
	return writer.Finalize()
}

// GenesisBodyHash returns the body commitment for a genesis block body.
func GenesisBodyHash(body *externalapi.GenesisBlockBody) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	writer.InfallibleWrite(serialization.SerializeGenesisBody(body))
	return writer.Finalize()
}

// MainBodyHash returns the body commitment for a main block body.
func MainBodyHash(body *externalapi.MainBlockBody) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	writer.InfallibleWrite(serialization.SerializeMainBody(body))
	return writer.Finalize()
}

// SigningHash returns the hash of the given main header without its
// signature: the hash the slot leader signs.
func SigningHash(header *externalapi.MainBlockHeader) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	writer.InfallibleWrite(serialization.SerializeMainHeaderForSigning(header))
	return writer.Finalize()
}

// CertificateSigningHash returns the hash of the given delegation
// certificate without its signature: the hash the issuer signs.
func CertificateSigningHash(certificate *externalapi.DelegationCertificate) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	writer.InfallibleWrite(serialization.SerializeCertificateForSigning(certificate))
	return writer.Finalize()
}

// TransactionID returns the ID of the given transaction, memoizing it
// on the transaction.
func TransactionID(tx *externalapi.DomainTransaction) *externalapi.DomainTransactionID {
	if tx.ID != nil {
		return tx.ID
	}
	writer := hashes.NewTransactionIDWriter()
	writer.InfallibleWrite(serialization.SerializeTransactionForID(tx))
	tx.ID = externalapi.NewDomainTransactionIDFromByteArray(writer.Finalize().ByteArray())
	return tx.ID
}
