package registry

import (
	"regexp"
	"strings"
)

// CannotParse marks a demographic token that could not be recovered from a
// DOI title. Parsing never fails hard: a title outside the template still
// produces a ParsedTitle, with this marker in every unrecoverable field.
const CannotParse = "cannot be parsed"

// ParsedTitle is the donor demographics embedded in a dataset DOI title.
type ParsedTitle struct {
	Age     string
	AgeUnit string
	Race    string
	Sex     string
}

// Dataset DOI titles follow the sentence template
// "<data> from the <organ> of a <age>-<ageunit>-old <race> <sex>[ donor]".
// The age clause anchors the match; race is whatever sits between the age
// clause and the sex token.
var titlePattern = regexp.MustCompile(
	`(?i)(\d+(?:\.\d+)?)[\s-]([a-z]+)-old\s+(.*?)\s*\b(male|female)\b`)

// ParseTitle extracts the demographic tokens from a DOI title. Fields that
// cannot be recovered are set to the CannotParse marker; the function never
// returns an error.
func ParseTitle(title string) ParsedTitle {
	parsed := ParsedTitle{
		Age:     CannotParse,
		AgeUnit: CannotParse,
		Race:    CannotParse,
		Sex:     CannotParse,
	}

	m := titlePattern.FindStringSubmatch(title)
	if m == nil {
		return parsed
	}

	parsed.Age = m[1]
	parsed.AgeUnit = strings.ToLower(m[2])
	parsed.Sex = strings.ToLower(m[4])

	if race := strings.TrimSpace(m[3]); race != "" {
		parsed.Race = strings.ToLower(race)
	}
	return parsed
}

// TrimDOIURL reduces a https://doi.org/ URL to the bare DOI. Bare DOIs pass
// through unchanged.
func TrimDOIURL(doi string) string {
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi.org/"} {
		if strings.HasPrefix(doi, prefix) {
			return strings.TrimPrefix(doi, prefix)
		}
	}
	return doi
}
