package fec

// NewRSScheme returns the GF(65536) cyclotomic Reed-Solomon scheme.
func NewRSScheme() Scheme { return newRSScheme() }

// NewRLCScheme returns the GF(256) random linear coding scheme.
func NewRLCScheme() Scheme { return newRLCScheme() }

// NewRSKlauspostScheme returns the github.com/klauspost/reedsolomon-backed
// block scheme.
func NewRSKlauspostScheme() Scheme { return newRSKlauspostScheme() }

// NewScheme constructs a scheme by id.
func NewScheme(id SchemeID) (Scheme, error) {
	switch id {
	case SchemeRS:
		return newRSScheme(), nil
	case SchemeRLC:
		return newRLCScheme(), nil
	case SchemeRSKlauspost:
		return newRSKlauspostScheme(), nil
	default:
		return nil, ErrSchemeMismatch
	}
}

// NewBulkController, NewBufferLimitedController, NewMessageBasedController
// and NewCausalController construct the four redundancy controllers (C6)
// starting from the given initial source symbol id.
func NewBulkController(start SourceSymbolID) Controller {
	return newBulkController(start)
}

func NewBufferLimitedController(start SourceSymbolID) Controller {
	return newBufferLimitedController(start)
}

func NewMessageBasedController(start SourceSymbolID) *messageBasedController {
	return newMessageBasedController(start)
}

func NewCausalController(start SourceSymbolID) *causalController {
	return newCausalController(start)
}
