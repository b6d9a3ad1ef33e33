// Package tenant provides the per-tenant context object passed into every
// quote operation. Tenant settings are loaded once at startup from a YAML
// registry file; there is no process-wide mutable tenant state.
package tenant

import (
	"strings"
	"time"
)

// Tenant holds the agency-level settings the quote engine needs.
type Tenant struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Currency    string `yaml:"currency"`
	Timezone    string `yaml:"timezone"`
	CountryCode string `yaml:"countryCode"`

	EmailFromName    string `yaml:"emailFromName"`
	EmailFromAddress string `yaml:"emailFromAddress"`

	// QuoteOptionCount is the number of priced hotel options a quote carries.
	QuoteOptionCount int `yaml:"quoteOptionCount"`

	// DefaultNights is used when a request omits the check-out date.
	DefaultNights int `yaml:"defaultNights"`

	// Destinations maps a canonical destination name to its alias list.
	Destinations []Destination `yaml:"destinations"`
}

// Destination is a canonical destination name plus the aliases under which
// rate sheets may list it.
type Destination struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Location resolves the tenant's timezone, falling back to UTC when the
// configured zone name is invalid.
func (t *Tenant) Location() *time.Location {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OptionCount returns the configured option count, defaulting to 3.
func (t *Tenant) OptionCount() int {
	if t.QuoteOptionCount < 1 {
		return 3
	}
	return t.QuoteOptionCount
}

// NightsDefault returns the configured default night count, defaulting to 3.
func (t *Tenant) NightsDefault() int {
	if t.DefaultNights < 1 {
		return 3
	}
	return t.DefaultNights
}

// CanonicalDestination returns the canonical-cased destination name for a
// case-insensitive match against names and aliases. The second return value
// reports whether a match was found.
func (t *Tenant) CanonicalDestination(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}

	for _, dest := range t.Destinations {
		if strings.ToLower(dest.Name) == needle {
			return dest.Name, true
		}
		for _, alias := range dest.Aliases {
			if strings.ToLower(alias) == needle {
				return dest.Name, true
			}
		}
	}

	return "", false
}

// SearchTerms expands a destination into its full search-term set: the
// canonical name plus all configured aliases. An unknown destination yields
// just the input itself.
func (t *Tenant) SearchTerms(destination string) []string {
	needle := strings.ToLower(strings.TrimSpace(destination))

	for _, dest := range t.Destinations {
		if strings.ToLower(dest.Name) != needle && !containsFold(dest.Aliases, needle) {
			continue
		}
		terms := make([]string, 0, len(dest.Aliases)+1)
		terms = append(terms, dest.Name)
		terms = append(terms, dest.Aliases...)
		return terms
	}

	return []string{strings.TrimSpace(destination)}
}

func containsFold(values []string, lowered string) bool {
	for _, v := range values {
		if strings.ToLower(v) == lowered {
			return true
		}
	}
	return false
}
