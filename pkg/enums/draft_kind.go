package enums

import "fmt"

// DraftKind distinguishes a quote being authored from a persisted quote being edited.
type DraftKind string

const (
	DraftKindNew  DraftKind = "new"
	DraftKindEdit DraftKind = "edit"
)

var validDraftKinds = []DraftKind{
	DraftKindNew,
	DraftKindEdit,
}

// String implements fmt.Stringer.
func (k DraftKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known DraftKind.
func (k DraftKind) IsValid() bool {
	for _, candidate := range validDraftKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseDraftKind converts raw input into a DraftKind.
func ParseDraftKind(value string) (DraftKind, error) {
	for _, candidate := range validDraftKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid draft kind %q", value)
}
