package externalapi

// HeaderClass describes how a single externally-received header
// relates to the current tip.
type HeaderClass byte

// HeaderClass constants.
const (
	// HeaderContinues means the header directly extends the current tip.
	HeaderContinues HeaderClass = iota

	// HeaderAlternative means the header belongs to a competing chain
	// heavier than the current one.
	HeaderAlternative

	// HeaderUseless means the header is of no use: wrong slot, a
	// genesis header, or not heavier than the tip.
	HeaderUseless

	// HeaderInvalid means the header failed verification.
	HeaderInvalid
)

var headerClassStrings = map[HeaderClass]string{
	HeaderContinues:   "Continues",
	HeaderAlternative: "Alternative",
	HeaderUseless:     "Useless",
	HeaderInvalid:     "Invalid",
}

func (hc HeaderClass) String() string {
	classString, ok := headerClassStrings[hc]
	if !ok {
		return "Unknown"
	}
	return classString
}

// HeaderClassification is the result of classifying a single header
// against the current tip. Reason is set for Useless and Invalid.
type HeaderClassification struct {
	Class  HeaderClass
	Reason string
}

// ChainClass describes how a candidate header chain relates to the
// local main chain.
type ChainClass byte

// ChainClass constants.
const (
	// ChainValid means the candidate chain forks off the main chain at
	// an acceptable depth (possibly at the tip itself).
	ChainValid ChainClass = iota

	// ChainUseless means the candidate chain is of no use: already
	// known, no shared ancestor, or forking too deep.
	ChainUseless

	// ChainInvalid means the candidate chain failed verification.
	ChainInvalid
)

var chainClassStrings = map[ChainClass]string{
	ChainValid:   "Valid",
	ChainUseless: "Useless",
	ChainInvalid: "Invalid",
}

func (cc ChainClass) String() string {
	classString, ok := chainClassStrings[cc]
	if !ok {
		return "Unknown"
	}
	return classString
}

// ChainClassification is the result of classifying a candidate header
// chain. LCAChild is the hash of the candidate header immediately
// following the latest common ancestor; it is set only for ChainValid.
// Reason is set for ChainUseless and ChainInvalid.
type ChainClassification struct {
	Class    ChainClass
	LCAChild *DomainHash
	Reason   string
}
