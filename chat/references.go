package chat

import (
	"regexp"
	"strconv"
)

var referenceRe = regexp.MustCompile(`\[([^\]]+)\]\(page://(\d+)\)`)

// Reference is a page citation parsed out of assistant content.
type Reference struct {
	Title  string
	PageID int64
}

// ParseReferences extracts [title](page://id) citations in order of first
// appearance. Repeated citations of the same page are reported once.
func ParseReferences(content string) []Reference {
	matches := referenceRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(matches))
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, Reference{Title: m[1], PageID: id})
	}
	return refs
}
