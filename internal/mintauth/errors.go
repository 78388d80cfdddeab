// errors.go - Error taxonomy and audit reason codes.
//
// Every failure is terminal for its submission: the pipeline aborts, state
// stays untouched, and the reason code goes out on the failure event.

package mintauth

import (
	"errors"

	"github.com/sovchain/sovmint/internal/governance"
	"github.com/sovchain/sovmint/internal/mintcircuit"
	"github.com/sovchain/sovmint/internal/threshold"
)

var (
	ErrNonceMismatch            = errors.New("nonce mismatch")
	ErrEpochMismatch            = errors.New("epoch mismatch")
	ErrThresholdSignatureFailed = errors.New("threshold signature failed")
	ErrLicenseNotFound          = errors.New("no mint license for minter")
	ErrAuthorityHashMismatch    = errors.New("authority hash does not match license")
	ErrLimitHashMismatch        = errors.New("limit hash does not match license")
	ErrComplianceDenied         = errors.New("transfer not permitted by compliance engine")
	ErrDuplicateRecord          = errors.New("record nonce already in ledger")
)

// ReasonFor maps an error to its stable audit reason code.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, mintcircuit.ErrInvalidProofLength):
		return "InvalidProofLength"
	case errors.Is(err, mintcircuit.ErrInvalidPublicInputLength):
		return "InvalidPublicInputLength"
	case errors.Is(err, mintcircuit.ErrProofVerificationFailed):
		return "ProofVerificationFailed"
	case errors.Is(err, ErrThresholdSignatureFailed):
		return "ThresholdSignatureFailed"
	case errors.Is(err, ErrNonceMismatch):
		return "NonceMismatch"
	case errors.Is(err, ErrEpochMismatch):
		return "EpochMismatch"
	case errors.Is(err, ErrLicenseNotFound):
		return "LicenseNotFound"
	case errors.Is(err, ErrAuthorityHashMismatch):
		return "AuthorityHashMismatch"
	case errors.Is(err, ErrLimitHashMismatch):
		return "LimitHashMismatch"
	case errors.Is(err, ErrComplianceDenied):
		return "ComplianceDenied"
	case errors.Is(err, governance.ErrGovernorNotFound):
		return "GovernorNotFound"
	case errors.Is(err, governance.ErrGovernorAlreadyPresent):
		return "GovernorAlreadyPresent"
	case errors.Is(err, governance.ErrCommitteeSizeInvalid):
		return "CommitteeSizeInvalid"
	case errors.Is(err, governance.ErrProposalAlreadyExecuted):
		return "ProposalAlreadyExecuted"
	case errors.Is(err, governance.ErrProposalExpired):
		return "ProposalExpired"
	case errors.Is(err, threshold.ErrMalformedSignature),
		errors.Is(err, threshold.ErrInsufficientSigners),
		errors.Is(err, threshold.ErrDuplicateSigner),
		errors.Is(err, threshold.ErrSignerOutOfRange),
		errors.Is(err, threshold.ErrSignatureInvalid):
		return "ThresholdSignatureFailed"
	default:
		return "Unknown"
	}
}
