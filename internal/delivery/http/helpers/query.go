package helpers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ParseIDList reads a list of ids from the named query parameter. Both repeated
// parameters (?p=a&p=b) and comma-separated values (?p=a,b) are accepted; blanks
// are dropped and ids are returned in canonical form. It returns the first value
// that is not a UUID as invalid.
func ParseIDList(r *http.Request, name string) (ids []string, invalid string) {
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, ok := CanonicalID(part)
			if !ok {
				return nil, part
			}
			ids = append(ids, id)
		}
	}
	return ids, ""
}

// CanonicalID parses s as a UUID in any form uuid.Parse accepts (upper case, braces,
// urn:uuid:, no hyphens) and returns its lowercase hyphenated form.
func CanonicalID(s string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// CanonicalIDs canonicalises every id, keeping order and repeats. ok is false if any
// id is not a UUID.
func CanonicalIDs(ids []string) (out []string, ok bool) {
	out = make([]string, 0, len(ids))
	for _, id := range ids {
		c, valid := CanonicalID(id)
		if !valid {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}
