package apollo

import (
	"strings"

	"github.com/orgharvest/orgharvest/internal/store"
)

// mergeOrganization maps one vendor record, merged from the search and
// detail payloads, onto the store entity. Phone prefers the sanitized
// top-level number over the primary phone's.
func mergeOrganization(search SearchOrganization, detail OrganizationDetail) store.Organization {
	phone := search.SanitizedPhone
	if phone == "" {
		phone = search.PrimaryPhone.SanitizedNumber
	}
	return store.Organization{
		ApolloID:          search.ID,
		Name:              search.Name,
		LinkedinURL:       search.LinkedinURL,
		WebsiteURL:        search.WebsiteURL,
		FacebookURL:       search.FacebookURL,
		Phone:             phone,
		NumberOfEmployees: detail.EstimatedNumEmployees,
		Industries:        detail.Industries,
		Keywords:          detail.Keywords,
		Address:           detail.RawAddress,
	}
}

// formatEmployeeRanges converts the stored descriptor ("1-10, 10-20") into
// the "min,max" tokens the search payload expects.
func formatEmployeeRanges(descriptor string) []string {
	var out []string
	for _, part := range splitAndTrim(descriptor, ",") {
		bounds := splitAndTrim(part, "-")
		if len(bounds) == 2 {
			out = append(out, bounds[0]+","+bounds[1])
		}
	}
	return out
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
