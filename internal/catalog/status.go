package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of clip lifecycle states.
type Kind int

const (
	KindIdle Kind = iota
	KindGenerating
	KindDone
	KindError
	KindSaved
)

// Status is the clip lifecycle state. Saved states carry an archival
// revision; everything else is fully described by the Kind. The zero value
// is Idle.
type Status struct {
	Kind Kind
	// Rev is the archival revision, meaningful only when Kind is KindSaved.
	// The first archive is revision 1 and serializes as bare "Saved".
	Rev int
}

var (
	Idle       = Status{Kind: KindIdle}
	Generating = Status{Kind: KindGenerating}
	Done       = Status{Kind: KindDone}
	Error      = Status{Kind: KindError}
)

const savedPrefix = "Saved ["

// Saved returns an archival status at the given revision (minimum 1).
func Saved(rev int) Status {
	if rev < 1 {
		rev = 1
	}
	return Status{Kind: KindSaved, Rev: rev}
}

// ParseStatus converts the legacy string form into a Status. Revision 1
// serializes as bare "Saved"; later revisions as "Saved [N]".
func ParseStatus(raw string) (Status, bool) {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "":
		return Idle, true
	case "Generating":
		return Generating, true
	case "Done":
		return Done, true
	case "Error":
		return Error, true
	case "Saved":
		return Saved(1), true
	}
	if strings.HasPrefix(trimmed, savedPrefix) && strings.HasSuffix(trimmed, "]") {
		inner := trimmed[len(savedPrefix) : len(trimmed)-1]
		rev, err := strconv.Atoi(strings.TrimSpace(inner))
		if err != nil || rev < 1 {
			return Status{}, false
		}
		return Saved(rev), true
	}
	return Status{}, false
}

// String renders the legacy serialized form used at the persistence boundary.
func (s Status) String() string {
	switch s.Kind {
	case KindIdle:
		return ""
	case KindGenerating:
		return "Generating"
	case KindDone:
		return "Done"
	case KindError:
		return "Error"
	case KindSaved:
		if s.Rev <= 1 {
			return "Saved"
		}
		return fmt.Sprintf("Saved [%d]", s.Rev)
	default:
		return ""
	}
}

// Display is the human-facing form; identical to String except Idle renders
// as "Idle" so tables stay readable.
func (s Status) Display() string {
	if s.Kind == KindIdle {
		return "Idle"
	}
	return s.String()
}

// IsSaved reports whether the status is an archival marker.
func (s Status) IsSaved() bool { return s.Kind == KindSaved }

// NextArchive returns the status produced by an explicit archive action.
// Archiving a Saved clip increments the revision; archiving from any other
// state starts at revision 1.
func NextArchive(s Status) Status {
	if s.Kind == KindSaved {
		rev := s.Rev
		if rev < 1 {
			rev = 1
		}
		return Saved(rev + 1)
	}
	return Saved(1)
}
