package upstream

import (
	"fmt"
	"net/url"
	"strings"
)

// CollectionPath lists every class.
const CollectionPath = "/classes"

// Class sub-resources as named by the upstream API.
const (
	SubSpellcasting  = "spellcasting"
	SubMulticlassing = "multi-classing"
	SubSubclasses    = "subclasses"
	SubSpells        = "spells"
	SubFeatures      = "features"
	SubProficiencies = "proficiencies"
)

// ClassPath builds /classes/{index}[/{sub}]. An empty or whitespace-only
// index yields ErrInvalidArgument.
func ClassPath(index string, sub ...string) (string, error) {
	idx := strings.TrimSpace(index)
	if idx == "" {
		return "", fmt.Errorf("%w: class index cannot be empty", ErrInvalidArgument)
	}

	var b strings.Builder
	b.WriteString(CollectionPath)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(idx))
	for _, s := range sub {
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String(), nil
}
