// README: Hourly local package ids and their legacy spellings.
package types

import (
	"regexp"
	"strings"
)

const (
	Package4hrs40km   = "4hrs-40km"
	Package8hrs80km   = "8hrs-80km"
	Package10hrs100km = "10hrs-100km"

	DefaultPackage = Package8hrs80km
)

var packageShape = regexp.MustCompile(`^0*(\d+)\s*(?:hrs|hr|hours|hour|h)\s*[-_ ]?\s*0*(\d+)\s*(?:kms|km)$`)

// NormalizePackageID maps legacy spellings ("8hr_80km", "08hrs-80km", "8 hours 80 km") to the
// canonical id. Unrecognised ids are returned lower-cased and trimmed.
func NormalizePackageID(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))
	if s == "" {
		return ""
	}
	m := packageShape.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	id := m[1] + "hrs-" + m[2] + "km"
	switch id {
	case Package4hrs40km, Package8hrs80km, Package10hrs100km:
		return id
	}
	return s
}
