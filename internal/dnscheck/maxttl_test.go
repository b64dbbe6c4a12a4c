package dnscheck

import (
	"testing"

	"github.com/miekg/dns"
)

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	if err != nil {
		t.Fatalf("NewRR(%q): %v", s, err)
	}
	return rr
}

func TestMaxTTL_PicksHighest(t *testing.T) {
	rrs := []dns.RR{
		mustRR(t, "example.org. 3600 IN NS ns1.example.org."),
		mustRR(t, "example.org. 86400 IN NS ns2.example.org."),
		mustRR(t, "example.org. 300 IN SOA ns1.example.org. hostmaster.example.org. 1 7200 3600 1209600 300"),
	}
	if got := maxTTL(rrs, 0); got != 86400 {
		t.Errorf("got %d want 86400", got)
	}
}

func TestMaxTTL_KeepsCurrentWhenHigher(t *testing.T) {
	rrs := []dns.RR{
		mustRR(t, "example.org. 60 IN NS ns1.example.org."),
	}
	if got := maxTTL(rrs, 7200); got != 7200 {
		t.Errorf("got %d want 7200", got)
	}
}

func TestMaxTTL_EmptyAnswer(t *testing.T) {
	if got := maxTTL(nil, 0); got != 0 {
		t.Errorf("got %d want 0", got)
	}
}
