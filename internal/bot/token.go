package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Decision button tokens carry {decision, owner, order} joined by
// underscores, e.g. "approve_123456_b5c9...". Order ids are UUIDs and never
// contain an underscore, so SplitN is unambiguous.

type decision string

const (
	decisionApprove decision = "approve"
	decisionReject  decision = "reject"
)

type decisionToken struct {
	Decision decision
	OwnerID  int64
	OrderID  string
}

func encodeDecisionToken(d decision, ownerID int64, orderID string) string {
	return fmt.Sprintf("%s_%d_%s", d, ownerID, orderID)
}

// decodeDecisionToken parses a button token. Malformed tokens return false
// rather than an error: the dispatch loop drops them and moves on.
func decodeDecisionToken(data string) (decisionToken, bool) {
	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 {
		return decisionToken{}, false
	}
	d := decision(parts[0])
	if d != decisionApprove && d != decisionReject {
		return decisionToken{}, false
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ownerID == 0 {
		return decisionToken{}, false
	}
	if parts[2] == "" {
		return decisionToken{}, false
	}
	return decisionToken{Decision: d, OwnerID: ownerID, OrderID: parts[2]}, true
}
