package ledger

import "strings"

// IssuanceStatus classifies how an issuance attempt ended.
type IssuanceStatus int

const (
	// IssuanceOk: the award transaction was mined successfully.
	IssuanceOk IssuanceStatus = iota
	// IssuanceRejected: the ledger refused the award for a business-rule
	// reason. Not retryable without changing the inputs.
	IssuanceRejected
	// IssuanceUnreachable: the ledger could not be reached or the attempt
	// timed out. Retryable later via the reward re-attempt path.
	IssuanceUnreachable
)

// RejectionKind is the closed set of ledger business-rule rejections. The
// settlement engine branches on this enum; raw revert strings never leave
// this package.
type RejectionKind int

const (
	RejectUnknown RejectionKind = iota
	RejectUnauthorized
	RejectCampaignClosed
	RejectValueOutOfBounds
	RejectRecipientMisconfigured
)

// String returns the wire name of the rejection kind.
func (k RejectionKind) String() string {
	switch k {
	case RejectUnauthorized:
		return "unauthorized"
	case RejectCampaignClosed:
		return "campaign_closed"
	case RejectValueOutOfBounds:
		return "value_out_of_bounds"
	case RejectRecipientMisconfigured:
		return "recipient_misconfigured"
	default:
		return "unknown"
	}
}

// IssuanceResult is the typed outcome of one award attempt.
type IssuanceResult struct {
	Status IssuanceStatus
	TxRef  string
	Kind   RejectionKind
	Cause  error
}

// Reason returns a short human-readable failure description for recording on
// the completion row, empty on success.
func (r IssuanceResult) Reason() string {
	switch r.Status {
	case IssuanceOk:
		return ""
	case IssuanceRejected:
		return "rejected: " + r.Kind.String()
	default:
		if r.Cause != nil {
			return "unreachable: " + r.Cause.Error()
		}
		return "unreachable"
	}
}

// classifyRevert maps a revert reason string onto the rejection enum. This is
// the only place revert text is inspected.
func classifyRevert(reason string) RejectionKind {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "operator") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "caller"):
		return RejectUnauthorized
	case strings.Contains(lower, "inactive") || strings.Contains(lower, "ended") || strings.Contains(lower, "full") || strings.Contains(lower, "budget"):
		return RejectCampaignClosed
	case strings.Contains(lower, "bounds") || strings.Contains(lower, "value") || strings.Contains(lower, "amount"):
		return RejectValueOutOfBounds
	case strings.Contains(lower, "recipient") || strings.Contains(lower, "receiver"):
		return RejectRecipientMisconfigured
	default:
		return RejectUnknown
	}
}
