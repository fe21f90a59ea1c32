package normalization

import (
	"strings"

	"github.com/yungbote/coursecatalog-backend/internal/pkg/pointers"
)

const noGPAMarker = "not included in gpa"

// Description is a catalog description blob split into its labelled segments.
type Description struct {
	Description *string
	Prereq      *string
	Coreq       *string
	Antireq     *string
	Notes       *string
	AKA         *string
	NoGPA       bool
}

type descriptionMarker struct {
	prefix string
	field  func(d *Description) **string
}

// Checked in order; the first prefix a paragraph starts with wins.
// "NOte: " is a typo present in historical catalog data and must stay as is.
var descriptionMarkers = []descriptionMarker{
	{"Prerequisite(s): ", func(d *Description) **string { return &d.Prereq }},
	{"Corequisite(s): ", func(d *Description) **string { return &d.Coreq }},
	{"Antirequisite(s): ", func(d *Description) **string { return &d.Antireq }},
	{"Notes: ", func(d *Description) **string { return &d.Notes }},
	{"NOte: ", func(d *Description) **string { return &d.Notes }},
	{"Also known as: ", func(d *Description) **string { return &d.AKA }},
}

// ParseDescription splits blob into paragraphs (every newline is a paragraph
// break). The first paragraph is the description; later paragraphs are matched
// against the fixed markers and anything unrecognised is dropped. A repeated
// marker overwrites the earlier value.
func ParseDescription(blob *string) Description {
	var out Description
	if blob == nil || strings.TrimSpace(*blob) == "" {
		return out
	}
	raw := *blob
	out.NoGPA = strings.Contains(strings.ToLower(raw), noGPAMarker)

	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\n", "\n\n")

	paragraphs := make([]string, 0, 8)
	for _, p := range strings.Split(normalized, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return out
	}

	out.Description = pointers.String(paragraphs[0])
	for _, p := range paragraphs[1:] {
		for _, m := range descriptionMarkers {
			if !strings.HasPrefix(p, m.prefix) {
				continue
			}
			*m.field(&out) = pointers.NonBlank(strings.TrimPrefix(p, m.prefix))
			break
		}
	}
	return out
}
