package externalapi

// Block is either a *GenesisBlock or a *MainBlock. Consumers must
// match on the concrete type exhaustively.
type Block interface {
	// Header returns the block's header.
	Header() BlockHeader
}

// GenesisBlock opens an epoch. Its body carries only the slot-leader
// assignment for the new epoch.
type GenesisBlock struct {
	GenesisHeader *GenesisBlockHeader
	Body          *GenesisBlockBody
}

// Header implements Block.
func (b *GenesisBlock) Header() BlockHeader { return b.GenesisHeader }

// GenesisBlockBody is the body of a genesis block.
type GenesisBlockBody struct {
	Leaders SlotLeaders
}

// MainBlock is a block produced by a slot leader within an epoch.
type MainBlock struct {
	MainHeader *MainBlockHeader
	Body       *MainBlockBody
}

// Header implements Block.
func (b *MainBlock) Header() BlockHeader { return b.MainHeader }

// MainBlockBody is the body of a main block.
type MainBlockBody struct {
	Transactions []*DomainTransaction
	Payload      *ConsensusPayload
	Certificates []*DelegationCertificate
}
