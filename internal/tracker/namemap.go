package tracker

import (
	"strings"

	"github.com/google/uuid"
)

// NameMap is the ordered list of entity identifiers. An entity's position is
// the index used in every Snapshot and Delta.
type NameMap []string

// Index returns the position of id. Identifiers are compared as UUIDs when
// both sides parse, so dashed and undashed forms match.
func (n NameMap) Index(id string) (int, bool) {
	want, err := uuid.Parse(id)
	for i, s := range n {
		if err == nil {
			if got, perr := uuid.Parse(s); perr == nil {
				if got == want {
					return i, true
				}
				continue
			}
		}
		if strings.EqualFold(s, id) {
			return i, true
		}
	}
	return 0, false
}

// At returns the identifier stored at index i.
func (n NameMap) At(i int) (string, bool) {
	if i < 0 || i >= len(n) {
		return "", false
	}
	return n[i], true
}
