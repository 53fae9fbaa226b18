package bot

import "testing"

func TestParseAdminReply(t *testing.T) {
	cases := []struct {
		in     string
		d      decision
		reason string
		ok     bool
	}{
		{"approve", decisionApprove, "", true},
		{"Approve", decisionApprove, "", true},
		{"APPROVE  ✅", decisionApprove, "", true},
		{"reject: blurry receipt", decisionReject, "blurry receipt", true},
		{"Reject:   wrong amount ", decisionReject, "wrong amount", true},
		{"reject:", decisionReject, defaultRejectReason, true},
		{"reject", "", "", false},
		{"approved by me", "", "", false},
		{"looks good", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		d, reason, ok := parseAdminReply(tc.in)
		if ok != tc.ok || d != tc.d || reason != tc.reason {
			t.Fatalf("parseAdminReply(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, d, reason, ok, tc.d, tc.reason, tc.ok)
		}
	}
}

func TestExtractOrderID(t *testing.T) {
	caption := "New payment receipt\nOrder ID: ord-42\nUser: Abebe Kebede"
	id, ok := extractOrderID(caption)
	if !ok || id != "ord-42" {
		t.Fatalf("got (%q, %v)", id, ok)
	}

	if _, ok := extractOrderID("random admin banter"); ok {
		t.Fatal("caption without order id must not parse")
	}
	if _, ok := extractOrderID("Order ID: "); ok {
		t.Fatal("empty order id must not parse")
	}
}
