package bot

import (
	"strings"
)

const (
	orderIDCaptionPrefix = "Order ID: "
	defaultRejectReason  = "Payment could not be verified"
)

// parseAdminReply reads the free-text decision grammar used in the admin
// channel: a reply starting with "approve" approves, "reject:" rejects with
// the rest as reason. Anything else is not a decision.
func parseAdminReply(text string) (decision, string, bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if lower == "approve" || strings.HasPrefix(lower, "approve ") {
		return decisionApprove, "", true
	}
	if strings.HasPrefix(lower, "reject:") {
		reason := strings.TrimSpace(trimmed[len("reject:"):])
		if reason == "" {
			reason = defaultRejectReason
		}
		return decisionReject, reason, true
	}
	return "", "", false
}

// extractOrderID pulls the order id out of an evidence message caption. The
// caption is written by this service, so the format is under our control,
// but admins can reply to anything; a miss returns false.
func extractOrderID(caption string) (string, bool) {
	for _, line := range strings.Split(caption, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, orderIDCaptionPrefix) {
			id := strings.TrimSpace(strings.TrimPrefix(line, orderIDCaptionPrefix))
			if id != "" {
				return id, true
			}
		}
	}
	return "", false
}
