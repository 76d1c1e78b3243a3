package theme

import "testing"

func TestValid(t *testing.T) {
	for _, id := range []string{"dark", "light", "church", "modern-sky", "modern-sand"} {
		if !Valid(id) {
			t.Errorf("Valid(%q) = false", id)
		}
	}
	for _, id := range []string{"", "neon", "Dark", " church"} {
		if Valid(id) {
			t.Errorf("Valid(%q) = true", id)
		}
	}
}

func TestCatalogMatchesIDs(t *testing.T) {
	opts := Options()
	if len(opts) != len(IDs()) {
		t.Fatalf("catalog has %d options, want %d", len(opts), len(IDs()))
	}
	for _, o := range opts {
		if !Valid(o.ID) {
			t.Errorf("catalog option %q is not a valid id", o.ID)
		}
		if o.LabelEn == "" || o.LabelKo == "" {
			t.Errorf("option %q is missing a label", o.ID)
		}
	}
	if !Valid(Default) {
		t.Fatalf("default %q is not valid", Default)
	}
}

func TestIDsReturnsCopy(t *testing.T) {
	got := IDs()
	got[0] = "neon"
	if Valid("neon") {
		t.Fatal("mutating IDs() leaked into the catalog")
	}
}
