package externalapi

// ConsensusPayload is the shared-seed computation payload carried by
// main blocks. The ledger core treats its entries as opaque beyond
// structural checks; verification is delegated to the payload
// collaborator.
type ConsensusPayload struct {
	Entries []*PayloadEntry
}

// PayloadEntry is a single stakeholder's contribution to the
// shared-seed computation for an epoch.
type PayloadEntry struct {
	Stakeholder StakeholderID
	Data        []byte
	Signature   []byte
}

// DelegationCertificate delegates an issuer's block-production right
// to a delegate for all epochs from Epoch onwards, until replaced.
type DelegationCertificate struct {
	Issuer    StakeholderID
	Delegate  StakeholderID
	Epoch     EpochIndex
	IssuerKey []byte

	// Signature is the issuer's signature over the rest of the
	// serialized certificate.
	Signature []byte
}
