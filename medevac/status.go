package medevac

// =============================================================================
// STATUS RESOLVER - Where the case sits in its funding lifecycle
// =============================================================================

const (
	StatusInitiated             = "Initiated"
	StatusInitialInProcessing   = "Initial In Processing"
	StatusInitialFundingOut     = "Initial Funding Out"
	StatusAmendmentInProcessing = "Amendment In Processing"
	StatusAmendmentFundingOut   = "Amendment Funding Out"
)

// ExtensionFundingOutStatus is e.g. "2nd Extension Funding Out".
func ExtensionFundingOutStatus(count int) string {
	return Ordinal(count) + " Extension Funding Out"
}

// ExtensionInProcessingStatus is e.g. "2nd Extension In Processing".
func ExtensionInProcessingStatus(count int) string {
	return Ordinal(count) + " Extension In Processing"
}

// ResolveStatus walks the stages latest first (last extension, amendment,
// initial) and reports the first one with a cable date. A stage with no
// cable dates falls through to the one before it.
func ResolveStatus(r *CaseRecord) string {
	if ext := r.LastExtension(); ext != nil {
		switch {
		case ext.FundingCableOutDate.IsSet():
			return ExtensionFundingOutStatus(len(r.Extensions))
		case ext.FundingCableInDate.IsSet():
			return ExtensionInProcessingStatus(len(r.Extensions))
		}
	}

	if a := r.Amendment(); a != nil {
		switch {
		case a.CableSentDate.IsSet():
			return StatusAmendmentFundingOut
		case a.CableInDate.IsSet():
			return StatusAmendmentInProcessing
		}
	}

	switch {
	case r.FundingCableSentDate.IsSet():
		return StatusInitialFundingOut
	case r.FundingCableInDate.IsSet():
		return StatusInitialInProcessing
	}
	return StatusInitiated
}
