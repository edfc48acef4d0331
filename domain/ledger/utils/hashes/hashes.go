package hashes

const (
	blockDomain       = "OrosBlockHash"
	transactionDomain = "OrosTransactionID"
	leaderSeedDomain  = "OrosLeaderSeed"
	stakeholderDomain = "OrosStakeholderID"
	payloadDomain     = "OrosPayloadEntry"
)

// NewBlockHashWriter returns a new writer used for block and header hashes.
func NewBlockHashWriter() HashWriter {
	return newKeyedWriter(blockDomain)
}

// NewTransactionIDWriter returns a new writer used for transaction IDs.
func NewTransactionIDWriter() HashWriter {
	return newKeyedWriter(transactionDomain)
}

// NewLeaderSeedWriter returns a new writer used for leader-election
// seed derivation.
func NewLeaderSeedWriter() HashWriter {
	return newKeyedWriter(leaderSeedDomain)
}

// NewStakeholderIDWriter returns a new writer used for hashing public
// keys into stakeholder IDs.
func NewStakeholderIDWriter() HashWriter {
	return newKeyedWriter(stakeholderDomain)
}

// NewPayloadEntryWriter returns a new writer used for hashing
// consensus payload entries for signing.
func NewPayloadEntryWriter() HashWriter {
	return newKeyedWriter(payloadDomain)
}
