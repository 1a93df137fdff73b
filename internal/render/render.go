// internal/render/render.go
package render

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/westgate-cre/outreach-backend/internal/model"
)

// Merge tags are matched case-insensitively so {{FirstName}} and
// {{first_name}} templates both work.
var (
	reFirstName    = regexp.MustCompile(`(?i)\{\{first_?name\}\}`)
	reFullAddress  = regexp.MustCompile(`(?i)\{\{property_?address\}\}`)
	reAddress      = regexp.MustCompile(`(?i)\{\{address\}\}`)
	rePropertyType = regexp.MustCompile(`(?i)\{\{property_?type\}\}`)
	reBuildingSf   = regexp.MustCompile(`(?i)\{\{(building_?sf|size)\}\}`)
	reYearsHeld    = regexp.MustCompile(`(?i)\{\{years_?held\}\}`)
	reForYearsHeld = regexp.MustCompile(`(?i)for \{\{years_?held\}\} years?`)
	reYearsHeldOwn = regexp.MustCompile(`(?i)\{\{years_?held\}\} years? of ownership`)
	reYearBuilt    = regexp.MustCompile(`(?i)\{\{year_?built\}\}`)
	reCity         = regexp.MustCompile(`(?i)\{\{city\}\}`)
	reState        = regexp.MustCompile(`(?i)\{\{state\}\}`)
	reSpaces       = regexp.MustCompile(`  +`)
)

// Render substitutes merge tags in a subject or body template with contact
// and property data. It is total: missing fields fall back to neutral
// defaults and no literal tag syntax survives in the output.
func Render(template string, contact model.Contact, property model.Property) string {
	if template == "" {
		return ""
	}

	result := template

	firstName := "there"
	if fields := strings.Fields(contact.Name); len(fields) > 0 {
		firstName = fields[0]
	}
	result = reFirstName.ReplaceAllString(result, firstName)

	fullAddress := joinNonEmpty(property.Address, property.City, property.StateCode)
	if fullAddress == "" {
		fullAddress = "the property"
	}
	result = reFullAddress.ReplaceAllString(result, fullAddress)

	address := property.Address
	if address == "" {
		address = "the property"
	}
	result = reAddress.ReplaceAllString(result, address)

	propertyType := strings.ToLower(property.PropertyType)
	if propertyType == "" {
		propertyType = "commercial"
	}
	result = rePropertyType.ReplaceAllString(result, propertyType)

	sfDisplay := ""
	if property.BuildingSizeSqft != nil && *property.BuildingSizeSqft > 0 {
		sfDisplay = groupThousands(*property.BuildingSizeSqft) + " SF"
	}
	result = reBuildingSf.ReplaceAllString(result, sfDisplay)

	// Years held: when unavailable, the enclosing phrase goes away as a
	// unit so the sentence still reads naturally.
	yearsHeld := 0
	if property.YearAcquired != nil {
		yearsHeld = time.Now().Year() - *property.YearAcquired
	}
	if yearsHeld > 0 {
		result = reYearsHeld.ReplaceAllString(result, strconv.Itoa(yearsHeld))
	} else {
		result = reForYearsHeld.ReplaceAllString(result, "")
		result = reYearsHeldOwn.ReplaceAllString(result, "")
		result = reYearsHeld.ReplaceAllString(result, "")
	}

	yearBuilt := ""
	if property.YearBuilt != nil && *property.YearBuilt > 0 {
		yearBuilt = strconv.Itoa(*property.YearBuilt)
	}
	result = reYearBuilt.ReplaceAllString(result, yearBuilt)
	result = reCity.ReplaceAllString(result, property.City)
	result = reState.ReplaceAllString(result, property.StateCode)

	return reSpaces.ReplaceAllString(result, " ")
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// groupThousands formats 1234567 as "1,234,567".
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
