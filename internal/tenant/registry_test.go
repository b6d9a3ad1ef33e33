package tenant

import "testing"

const registryYAML = `
tenants:
  - id: safari-co
    name: Safari Co
    currency: ZAR
    timezone: Africa/Johannesburg
    countryCode: ZA
    quoteOptionCount: 3
    defaultNights: 3
    destinations:
      - name: Kruger National Park
        aliases: ["Kruger", "KNP", "Kruger Park"]
      - name: Cape Town
        aliases: ["Capetown", "Mother City"]
`

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := ParseRegistry([]byte(registryYAML))
	if err != nil {
		t.Fatalf("parse registry: %v", err)
	}
	return reg
}

func TestCanonicalDestinationMatchesAliasCaseInsensitive(t *testing.T) {
	reg := loadTestRegistry(t)
	tn, err := reg.Get("safari-co")
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}

	got, ok := tn.CanonicalDestination("kruger park")
	if !ok {
		t.Fatal("expected alias to resolve")
	}
	if got != "Kruger National Park" {
		t.Fatalf("expected canonical name, got %q", got)
	}
}

func TestSearchTermsIncludeCanonicalAndAliases(t *testing.T) {
	reg := loadTestRegistry(t)
	tn, _ := reg.Get("safari-co")

	terms := tn.SearchTerms("KNP")
	if len(terms) != 4 {
		t.Fatalf("expected 4 search terms, got %d: %v", len(terms), terms)
	}
	if terms[0] != "Kruger National Park" {
		t.Fatalf("expected canonical name first, got %q", terms[0])
	}
}

func TestSearchTermsUnknownDestinationFallsThrough(t *testing.T) {
	reg := loadTestRegistry(t)
	tn, _ := reg.Get("safari-co")

	terms := tn.SearchTerms("Okavango Delta")
	if len(terms) != 1 || terms[0] != "Okavango Delta" {
		t.Fatalf("expected passthrough term, got %v", terms)
	}
}

func TestLocationFallsBackToUTCOnInvalidZone(t *testing.T) {
	tn := &Tenant{Timezone: "Mars/Olympus_Mons"}
	if tn.Location() != nil && tn.Location().String() != "UTC" {
		t.Fatalf("expected UTC fallback, got %v", tn.Location())
	}
}

func TestGetUnknownTenant(t *testing.T) {
	reg := loadTestRegistry(t)
	if _, err := reg.Get("nope"); err == nil {
		t.Fatal("expected error for unknown tenant")
	}
}
