package externalapi

// TransactionUndo is the data needed to reverse one applied
// transaction: the UTXO entries its inputs consumed, in input order.
type TransactionUndo struct {
	SpentEntries []*OutpointEntryPair
}

// BlockUndo is the minimal data needed to reverse a block's storage
// effects: restoration of consumed UTXO entries and removal of applied
// delegation certificates. It is produced by block verification and
// consumed by rollback. Genesis blocks carry an empty undo.
type BlockUndo struct {
	// TxUndos has exactly one entry per transaction in the block,
	// in block order.
	TxUndos []*TransactionUndo

	// ReplacedCertificates holds the certificates that were
	// overwritten by this block's certificates and must be
	// restored on rollback.
	ReplacedCertificates []*DelegationCertificate
}

// NewEmptyBlockUndo returns a BlockUndo for a block with no storage
// effects beyond its own presence, e.g. a genesis block.
func NewEmptyBlockUndo() *BlockUndo {
	return &BlockUndo{}
}

// Blund is a block paired with the undo data needed to reverse its
// application. It is the unit of apply and rollback.
type Blund struct {
	Block Block
	Undo  *BlockUndo
}

// Header returns the header of the blund's block.
func (b *Blund) Header() BlockHeader {
	return b.Block.Header()
}
