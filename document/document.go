// Package document holds the read-time materialization of a document
// instance: the typed field values, publication state, and audit trail
// decoded from one query-result row. Instances are built per row by the
// repository and never persisted as objects.
package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/strata-cms/strata/schema"
)

// RowID is the surrogate row identity of a document instance.
type RowID int64

// Instance is one decoded document instance.
type Instance struct {
	ID             RowID
	DocumentTypeID schema.DocumentTypeID
	Content        Content
	Audit          Audit
}

// Content is the typed field map of an instance together with its
// publication state. Locale is set when the instance row carries a
// localization variant.
type Content struct {
	Fields      map[string]Value
	Locale      string
	Publication Publication
}

// State is the two-state draft/publish lifecycle.
type State int

const (
	Draft State = iota
	Published
)

func (s State) String() string {
	if s == Published {
		return "published"
	}
	return "draft"
}

// Publication describes the lifecycle position of an instance. For document
// types without draft/publish support the state is always Published with
// the creation timestamp. PublishedBy is reserved for the write path and
// may be empty.
type Publication struct {
	State       State
	Revision    int
	PublishedAt time.Time
	PublishedBy string
}

// Audit carries the row's audit columns. The actor ids and version counter
// are reserved for the write path and default to empty values on read.
type Audit struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
	Version   int
}

// Value is a typed domain value decoded from one column. A SQL NULL decodes
// to the explicit Null value, never to an absent map entry.
type Value interface {
	isValue()
}

// Null is the explicit null value.
type Null struct{}

// Text is a decoded text or uid value.
type Text string

// Integer is a decoded integer value.
type Integer int64

// Decimal is a decoded decimal value.
type Decimal float64

// Boolean is a decoded boolean value.
type Boolean bool

// Date is a decoded calendar date.
type Date time.Time

// DateTime is a decoded timestamp.
type DateTime time.Time

// UUID is a decoded uuid value.
type UUID uuid.UUID

func (Null) isValue()     {}
func (Text) isValue()     {}
func (Integer) isValue()  {}
func (Decimal) isValue()  {}
func (Boolean) isValue()  {}
func (Date) isValue()     {}
func (DateTime) isValue() {}
func (UUID) isValue()     {}
