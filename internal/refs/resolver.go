// Package refs resolves a clip's named references against a series library.
//
// Resolution is pure: the library lookup is injected, so the database-backed
// path and in-memory tests share identical logic.
package refs

import (
	"strings"

	"golang.org/x/text/cases"

	"callboard/internal/catalog"
)

// Mode controls how many URLs a multi-image library asset contributes.
type Mode int

const (
	// ModeSingle takes only the first URL of a multi-image asset.
	ModeSingle Mode = iota
	// ModeAll takes every URL of a multi-image asset.
	ModeAll
)

// LookupFunc returns the stored reference URLs for a library asset name.
// The second return reports whether the name is known.
type LookupFunc func(name string) (string, bool)

// Resolution is the outcome of resolving one clip's references.
type Resolution struct {
	// FullRefs is the library-derived URLs followed by the explicit URLs,
	// comma-joined. Library-derived URLs are deduplicated and never repeat
	// a URL already present in the explicit set.
	FullRefs string
	// ExplicitRefs is the user's explicit URL string, verbatim.
	ExplicitRefs string
	// CharacterImageURLs preserves the order character names appear in the
	// clip, one or more URLs per resolved character.
	CharacterImageURLs []string
	// CharacterImageGroups is the same URLs grouped per character name, in
	// clip order. Unresolved names contribute an empty group.
	CharacterImageGroups [][]string
	// LocationImageURLs holds the resolved location URLs, if any.
	LocationImageURLs []string
}

// ExplicitURLs returns the explicit reference URLs as an ordered list.
func (r Resolution) ExplicitURLs() []string {
	return SplitList(r.ExplicitRefs)
}

// ResolveImages resolves the clip's character and location names through
// lookup and merges the result with the clip's explicit URLs.
//
// The explicit field wins as the source of explicit URLs whenever it has been
// set, even to the empty string; only an unset field falls back to the legacy
// combined column.
func ResolveImages(clip *catalog.Clip, lookup LookupFunc, mode Mode) Resolution {
	if clip == nil {
		return Resolution{}
	}

	explicitRaw := clip.FullRefURLs
	if clip.ExplicitRefURLs != nil {
		explicitRaw = *clip.ExplicitRefURLs
	}
	explicit := SplitList(explicitRaw)

	explicitSet := make(map[string]struct{}, len(explicit))
	for _, url := range explicit {
		explicitSet[url] = struct{}{}
	}

	var (
		library    []string
		librarySet = make(map[string]struct{})
	)
	appendLibrary := func(urls []string) {
		for _, url := range urls {
			if _, ok := explicitSet[url]; ok {
				continue
			}
			if _, ok := librarySet[url]; ok {
				continue
			}
			librarySet[url] = struct{}{}
			library = append(library, url)
		}
	}

	var (
		characterURLs   []string
		characterGroups [][]string
	)
	for _, name := range SplitList(clip.Characters) {
		urls := lookupURLs(lookup, name, mode)
		characterURLs = append(characterURLs, urls...)
		characterGroups = append(characterGroups, urls)
		appendLibrary(urls)
	}

	var locationURLs []string
	if name := strings.TrimSpace(clip.Location); name != "" {
		locationURLs = lookupURLs(lookup, name, mode)
		appendLibrary(locationURLs)
	}

	return Resolution{
		FullRefs:             JoinList(append(append([]string(nil), library...), explicit...)),
		ExplicitRefs:         explicitRaw,
		CharacterImageURLs:   characterURLs,
		CharacterImageGroups: characterGroups,
		LocationImageURLs:    locationURLs,
	}
}

func lookupURLs(lookup LookupFunc, name string, mode Mode) []string {
	if lookup == nil {
		return nil
	}
	stored, ok := lookup(name)
	if !ok {
		return nil
	}
	urls := SplitList(stored)
	if len(urls) == 0 {
		return nil
	}
	if mode == ModeSingle {
		return urls[:1]
	}
	return urls
}

// LibraryLookup builds a LookupFunc over a series' library assets. Matching
// is exact after name normalization; no fuzzy matching.
func LibraryLookup(items []*catalog.StudioItem) LookupFunc {
	index := make(map[string]string, len(items))
	for _, item := range items {
		if item == nil || strings.TrimSpace(item.RefImageURLs) == "" {
			continue
		}
		key := NormalizeName(item.Name)
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = item.RefImageURLs
		}
	}
	return func(name string) (string, bool) {
		urls, ok := index[NormalizeName(name)]
		return urls, ok
	}
}

var nameFolder = cases.Fold()

// NormalizeName lowers the asset-name join key: Unicode case folding,
// underscores treated as spaces, runs of whitespace collapsed.
func NormalizeName(name string) string {
	folded := nameFolder.String(strings.ReplaceAll(name, "_", " "))
	return strings.Join(strings.Fields(folded), " ")
}

// SplitList splits a comma-separated field into trimmed, non-empty values.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// JoinList renders an ordered URL list back into the comma-separated
// persistence form.
func JoinList(values []string) string {
	return strings.Join(values, ", ")
}
