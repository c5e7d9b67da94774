package normalize

import (
	"regexp"
	"strings"
)

var addressObjectAliases = []string{"MainAddress", "Address", "address"}
var displayAddressAliases = []string{"DisplayAddress", "FullAddress", "AddressDisplay"}

var zipRegex = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
var stateZipRegex = regexp.MustCompile(`^([A-Za-z]{2})\.?\s+(\d{5})(?:-\d{4})?$`)

// resolveAddress handles the three address shapes seen across
// deployments: a structured sub-object, a single delimited display
// string, or flat top-level fields.
func resolveAddress(raw map[string]any) Address {
	if addr, ok := structuredAddress(raw); ok {
		return addr
	}
	if addr, ok := displayAddress(raw); ok {
		return addr
	}
	return flatAddress(raw)
}

func structuredAddress(raw map[string]any) (Address, bool) {
	for _, alias := range addressObjectAliases {
		sub, ok := raw[alias].(map[string]any)
		if !ok {
			continue
		}
		addr := Address{
			Line:  firstString(sub, []string{"AddressLine1", "StreetLine1", "Line1", "AddressLine"}),
			City:  firstString(sub, []string{"City", "city"}),
			State: firstString(sub, []string{"State", "StateCode", "StateName"}),
			Zip:   firstString(sub, []string{"Zip", "ZipCode", "PostalCode"}),
		}
		if addr.Line != "" || addr.City != "" || addr.Zip != "" {
			return addr, true
		}
	}
	return Address{}, false
}

// displayAddress splits a "123 Main St, Springfield, IL 62704" style
// string. City and zip extraction is best-effort; whatever cannot be
// placed stays on the line.
func displayAddress(raw map[string]any) (Address, bool) {
	display := firstString(raw, displayAddressAliases)
	if display == "" {
		return Address{}, false
	}

	parts := strings.Split(display, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	addr := Address{Line: parts[0]}
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if m := stateZipRegex.FindStringSubmatch(last); m != nil {
			addr.State = strings.ToUpper(m[1])
			addr.Zip = m[2]
			if len(parts) >= 3 {
				addr.City = parts[len(parts)-2]
			}
		} else if m := zipRegex.FindStringSubmatch(last); m != nil {
			addr.Zip = m[1]
			city := strings.TrimSpace(zipRegex.ReplaceAllString(last, ""))
			if city != "" {
				addr.City = city
			} else if len(parts) >= 3 {
				addr.City = parts[len(parts)-2]
			}
		} else {
			addr.City = last
		}
	}
	return addr, true
}

func flatAddress(raw map[string]any) Address {
	return Address{
		Line:  firstString(raw, []string{"AddressLine1", "StreetAddress", "SiteAddress"}),
		City:  firstString(raw, []string{"City", "city"}),
		State: firstString(raw, []string{"State", "StateCode"}),
		Zip:   firstString(raw, []string{"Zip", "ZipCode", "PostalCode"}),
	}
}
