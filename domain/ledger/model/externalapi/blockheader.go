package externalapi

// BlockHeader is the header of either a genesis (epoch boundary) block
// or a main block. It is immutable once constructed: consumers must
// match on the concrete type (*GenesisBlockHeader or *MainBlockHeader)
// exhaustively.
type BlockHeader interface {
	// ParentHash is the hash of the header's predecessor on its chain.
	ParentHash() *DomainHash

	// BodyHash is the content hash of the block body this header
	// commits to.
	BodyHash() *DomainHash

	// Difficulty is the accumulated chain difficulty up to and
	// including this header's block.
	Difficulty() ChainDifficulty

	// EpochOrSlot is the position of this header on the slot
	// timeline.
	EpochOrSlot() *EpochOrSlot
}

// GenesisBlockHeader is the header of a genesis block: the block that
// opens an epoch. It carries the difficulty of its parent unchanged.
type GenesisBlockHeader struct {
	Parent         DomainHash
	Epoch          EpochIndex
	ChainDiff      ChainDifficulty
	BodyCommitment DomainHash
}

// ParentHash implements BlockHeader.
func (h *GenesisBlockHeader) ParentHash() *DomainHash { return &h.Parent }

// BodyHash implements BlockHeader.
func (h *GenesisBlockHeader) BodyHash() *DomainHash { return &h.BodyCommitment }

// Difficulty implements BlockHeader.
func (h *GenesisBlockHeader) Difficulty() ChainDifficulty { return h.ChainDiff }

// EpochOrSlot implements BlockHeader.
func (h *GenesisBlockHeader) EpochOrSlot() *EpochOrSlot { return NewEpochBoundary(h.Epoch) }

// MainBlockHeader is the header of a main block: a block produced by a
// slot leader, carrying transactions and consensus data. Its
// difficulty is exactly one unit above its parent's.
type MainBlockHeader struct {
	Parent          DomainHash
	Slot            SlotID
	ChainDiff       ChainDifficulty
	ProtocolVersion uint16
	SoftwareVersion string
	BodyCommitment  DomainHash
	Leader          StakeholderID
	LeaderPublicKey []byte

	// Signature is the slot leader's signature over the rest of
	// the serialized header.
	Signature []byte
}

// ParentHash implements BlockHeader.
func (h *MainBlockHeader) ParentHash() *DomainHash { return &h.Parent }

// BodyHash implements BlockHeader.
func (h *MainBlockHeader) BodyHash() *DomainHash { return &h.BodyCommitment }

// Difficulty implements BlockHeader.
func (h *MainBlockHeader) Difficulty() ChainDifficulty { return h.ChainDiff }

// EpochOrSlot implements BlockHeader.
func (h *MainBlockHeader) EpochOrSlot() *EpochOrSlot { return NewEpochSlot(h.Slot) }
