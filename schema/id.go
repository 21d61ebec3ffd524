package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// ReservedPrefix is the identifier namespace reserved for the engine itself.
// User-supplied document type and attribute ids must not start with it.
const ReservedPrefix = "strata_"

const maxIDLength = 20

var eligibleID = regexp.MustCompile(`^[A-Za-z0-9_/-]+$`)

// DocumentTypeID identifies one document type. The raw (sanitized) form is
// the external, API-facing id; Normalized produces the form used to build
// SQL identifiers.
type DocumentTypeID struct {
	value string
}

// AttributeID identifies one field or relation within a document type.
type AttributeID struct {
	value string
}

// NewDocumentTypeID sanitizes and validates raw into a DocumentTypeID.
// The value is trimmed and lower-cased; validation fails on empty input,
// input longer than 20 characters, characters outside [A-Za-z0-9_/-], or a
// reserved prefix. There is no repair path: invalid input is an error.
func NewDocumentTypeID(raw string) (DocumentTypeID, error) {
	v, err := sanitizeID(raw)
	if err != nil {
		return DocumentTypeID{}, fmt.Errorf("invalid document type id %q: %w", raw, err)
	}
	return DocumentTypeID{value: v}, nil
}

// NewAttributeID sanitizes and validates raw into an AttributeID using the
// same rules as NewDocumentTypeID.
func NewAttributeID(raw string) (AttributeID, error) {
	v, err := sanitizeID(raw)
	if err != nil {
		return AttributeID{}, fmt.Errorf("invalid attribute id %q: %w", raw, err)
	}
	return AttributeID{value: v}, nil
}

func sanitizeID(raw string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "":
		return "", fmt.Errorf("id is empty")
	case len(v) > maxIDLength:
		return "", fmt.Errorf("id exceeds %d characters", maxIDLength)
	case !eligibleID.MatchString(v):
		return "", fmt.Errorf("id contains characters outside [A-Za-z0-9_/-]")
	case strings.HasPrefix(v, ReservedPrefix):
		return "", fmt.Errorf("id uses reserved prefix %q", ReservedPrefix)
	}
	return v, nil
}

func (id DocumentTypeID) String() string { return id.value }

// Normalized returns the id with "-" replaced by "_", suitable for use as a
// SQL table or column identifier. All SQL naming must go through this
// projection so the migration and query paths agree on names.
func (id DocumentTypeID) Normalized() string { return strings.ReplaceAll(id.value, "-", "_") }

// IsZero reports whether the id is the uninitialized zero value.
func (id DocumentTypeID) IsZero() bool { return id.value == "" }

func (id AttributeID) String() string { return id.value }

// Normalized returns the id with "-" replaced by "_". See
// DocumentTypeID.Normalized.
func (id AttributeID) Normalized() string { return strings.ReplaceAll(id.value, "-", "_") }

// IsZero reports whether the id is the uninitialized zero value.
func (id AttributeID) IsZero() bool { return id.value == "" }

var validLocale = regexp.MustCompile(`^[a-z]{2}$`)

// LocaleID is a two-letter locale code used for localized field variants.
type LocaleID struct {
	value string
}

// NewLocaleID sanitizes and validates raw into a LocaleID. Locale codes are
// exactly two lowercase ASCII letters after trimming and lower-casing.
func NewLocaleID(raw string) (LocaleID, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if !validLocale.MatchString(v) {
		return LocaleID{}, fmt.Errorf("invalid locale id %q: must be two ASCII letters", raw)
	}
	return LocaleID{value: v}, nil
}

func (id LocaleID) String() string { return id.value }
