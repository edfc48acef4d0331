package transactionvalidator

import (
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// transactionValidator checks block transactions against the UTXO set.
// Spends are tracked across the verified sequence, so a transaction
// may consume outputs created by an earlier block of the same
// sequence.
type transactionValidator struct {
	utxoStore model.UTXOStore
}

// New instantiates a new TransactionValidator
func New(utxoStore model.UTXOStore) model.TransactionValidator {
	return &transactionValidator{utxoStore: utxoStore}
}

// utxoOverlay is the in-memory view of the UTXO set as it evolves
// across a verified block sequence: outputs created so far and
// outpoints spent so far, layered over the stored set.
type utxoOverlay struct {
	created map[externalapi.DomainOutpoint]*externalapi.UTXOEntry
	spent   map[externalapi.DomainOutpoint]struct{}
}

func newUTXOOverlay() *utxoOverlay {
	return &utxoOverlay{
		created: make(map[externalapi.DomainOutpoint]*externalapi.UTXOEntry),
		spent:   make(map[externalapi.DomainOutpoint]struct{}),
	}
}

func (tv *transactionValidator) VerifyBlockTransactions(dbContext database.DataAccessor,
	blocks []externalapi.Block) ([][]*externalapi.TransactionUndo, error) {

	overlay := newUTXOOverlay()
	undos := make([][]*externalapi.TransactionUndo, len(blocks))
	for i, block := range blocks {
		mainBlock, ok := block.(*externalapi.MainBlock)
		if !ok {
			undos[i] = nil
			continue
		}
		blockUndos := make([]*externalapi.TransactionUndo, len(mainBlock.Body.Transactions))
		for j, tx := range mainBlock.Body.Transactions {
			txUndo, err := tv.verifyTransaction(dbContext, overlay, tx)
			if err != nil {
				return nil, err
			}
			blockUndos[j] = txUndo
		}
		undos[i] = blockUndos
	}
	return undos, nil
}

func (tv *transactionValidator) ValidateTransaction(dbContext database.DataAccessor,
	tx *externalapi.DomainTransaction) (*externalapi.TransactionUndo, error) {

	return tv.verifyTransaction(dbContext, newUTXOOverlay(), tx)
}

func (tv *transactionValidator) verifyTransaction(dbContext database.DataAccessor,
	overlay *utxoOverlay, tx *externalapi.DomainTransaction) (*externalapi.TransactionUndo, error) {

	txID := consensushashing.TransactionID(tx)
	signingHash, err := externalapi.NewDomainHashFromByteSlice(txID.ByteSlice())
	if err != nil {
		return nil, err
	}

	spentEntries := make([]*externalapi.OutpointEntryPair, len(tx.Inputs))
	totalIn := uint64(0)
	for i, input := range tx.Inputs {
		entry, err := tv.resolveEntry(dbContext, overlay, &input.PreviousOutpoint)
		if err != nil {
			return nil, err
		}
		err = verifyInputSignature(input, &entry.Recipient, signingHash)
		if err != nil {
			return nil, err
		}
		spentEntries[i] = &externalapi.OutpointEntryPair{
			Outpoint: input.PreviousOutpoint,
			Entry:    *entry,
		}
		totalIn += entry.Amount

		// Marking the outpoint spent right away makes a second input
		// naming the same outpoint fail to resolve.
		overlay.spent[input.PreviousOutpoint] = struct{}{}
	}

	totalOut := uint64(0)
	for _, output := range tx.Outputs {
		totalOut += output.Value
	}
	if totalOut > totalIn {
		return nil, errors.Wrapf(ruleerrors.ErrOverspend,
			"transaction %s spends %d out of %d available", txID, totalOut, totalIn)
	}

	for i, output := range tx.Outputs {
		outpoint := externalapi.DomainOutpoint{TransactionID: *txID, Index: uint32(i)}
		overlay.created[outpoint] = &externalapi.UTXOEntry{
			Amount:    output.Value,
			Recipient: output.Recipient,
		}
	}
	return &externalapi.TransactionUndo{SpentEntries: spentEntries}, nil
}

func (tv *transactionValidator) resolveEntry(dbContext database.DataAccessor, overlay *utxoOverlay,
	outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, error) {

	if _, ok := overlay.spent[*outpoint]; ok {
		return nil, errors.Wrapf(ruleerrors.ErrMissingUTXOEntry,
			"outpoint %s was already spent within the verified sequence", outpoint)
	}
	if entry, ok := overlay.created[*outpoint]; ok {
		return entry, nil
	}
	entry, err := tv.utxoStore.Entry(dbContext, outpoint)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ruleerrors.ErrMissingUTXOEntry,
			"outpoint %s is not in the UTXO set", outpoint)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// verifyInputSignature checks the input's signature material: the
// serialized public key followed by a signature over the transaction's
// ID hash. The key must hash to the consumed output's recipient.
func verifyInputSignature(input *externalapi.DomainTransactionInput,
	recipient *externalapi.StakeholderID, signingHash *externalapi.DomainHash) error {

	expectedLength := blocksigning.SchnorrPublicKeySize + blocksigning.SchnorrSignatureSize
	if len(input.Signature) != expectedLength {
		return errors.Wrapf(ruleerrors.ErrBadTransactionSignature,
			"the input signature is %d bytes, expected %d", len(input.Signature), expectedLength)
	}
	publicKey := input.Signature[:blocksigning.SchnorrPublicKeySize]
	signature := input.Signature[blocksigning.SchnorrPublicKeySize:]

	signer := blocksigning.StakeholderIDFromPublicKey(publicKey)
	if *signer != *recipient {
		return errors.Wrapf(ruleerrors.ErrBadTransactionSignature,
			"the input is signed by %s, the consumed output belongs to %s", signer, recipient)
	}
	valid, err := blocksigning.VerifyHash(publicKey, signingHash, signature)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadTransactionSignature, "malformed input signature: %s", err)
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrBadTransactionSignature,
			"the input signature does not verify against the output's recipient")
	}
	return nil
}
