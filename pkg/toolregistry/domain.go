package toolregistry

import (
	"fmt"
	"strings"
)

// Domain groups related tools under one provider
type Domain string

const (
	DomainTechSupport Domain = "tech_support"
	DomainGeneral     Domain = "general"
	DomainData        Domain = "data"
	DomainDemo        Domain = "demo"
)

// AllDomains returns every known domain in declaration order.
// The order doubles as the tie-break when two providers expose the same tool name.
func AllDomains() []Domain {
	return []Domain{
		DomainTechSupport,
		DomainGeneral,
		DomainData,
		DomainDemo,
	}
}

// IsValid reports whether d is one of the known domains
func (d Domain) IsValid() bool {
	for _, known := range AllDomains() {
		if d == known {
			return true
		}
	}
	return false
}

func (d Domain) String() string {
	return string(d)
}

// ParseDomain resolves a domain name, ignoring case and surrounding whitespace
func ParseDomain(name string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(name)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, name)
	}
	return d, nil
}

// domainRank returns the position of d in AllDomains, or len(AllDomains) if unknown
func domainRank(d Domain) int {
	all := AllDomains()
	for i, known := range all {
		if d == known {
			return i
		}
	}
	return len(all)
}
