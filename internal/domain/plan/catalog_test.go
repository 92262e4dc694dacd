package plan

import "testing"

func TestLoadCatalog_Embedded(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	entries := c.List()
	if len(entries) != 4 {
		t.Fatalf("List() returned %d entries, want 4", len(entries))
	}

	free, ok := c.Entry(TierFreeTrial)
	if !ok {
		t.Fatal("Entry(TierFreeTrial) missing")
	}
	if free.PriceCents != 0 {
		t.Errorf("free trial price = %d, want 0", free.PriceCents)
	}
	if free.AgentLimit != 1 {
		t.Errorf("free trial agent limit = %d, want 1", free.AgentLimit)
	}

	premium, ok := c.Entry(TierPremium)
	if !ok {
		t.Fatal("Entry(TierPremium) missing")
	}
	if premium.AgentLimit != 10 {
		t.Errorf("premium agent limit = %d, want 10", premium.AgentLimit)
	}
	if premium.Currency != "BRL" {
		t.Errorf("premium currency = %q, want BRL", premium.Currency)
	}
}

func TestIsPromoCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ofertamdf", true},
		{"OFERTAMDF", true},
		{"  OfertaMDF  ", true},
		{"oferta", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsPromoCode(tt.code); got != tt.want {
			t.Errorf("IsPromoCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
