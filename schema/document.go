package schema

import "sort"

// Kind distinguishes document types holding many instances from types
// holding exactly one.
type Kind int

const (
	Collection Kind = iota
	SingleType
)

func (k Kind) String() string {
	if k == SingleType {
		return "singleType"
	}
	return "collection"
}

// AttributeType enumerates the scalar types a field may declare. Column
// types and decoded values are chosen from this enumeration, never inferred
// from raw database values.
type AttributeType int

const (
	Uid AttributeType = iota
	Uuid
	Text
	Integer
	Decimal
	Date
	DateTime
	Boolean
)

var attributeTypeNames = map[AttributeType]string{
	Uid:      "uid",
	Uuid:     "uuid",
	Text:     "text",
	Integer:  "integer",
	Decimal:  "decimal",
	Date:     "date",
	DateTime: "datetime",
	Boolean:  "boolean",
}

func (t AttributeType) String() string { return attributeTypeNames[t] }

// RelationType enumerates relation kinds. Only owning kinds materialize a
// junction table; inverse kinds are logical back-references.
type RelationType int

const (
	HasOne RelationType = iota
	HasMany
	BelongsToOne
	BelongsToMany
)

var relationTypeNames = map[RelationType]string{
	HasOne:        "hasOne",
	HasMany:       "hasMany",
	BelongsToOne:  "belongsToOne",
	BelongsToMany: "belongsToMany",
}

func (t RelationType) String() string { return relationTypeNames[t] }

// IsOwning reports whether the relation kind physically stores the junction
// table.
func (t RelationType) IsOwning() bool { return t == HasOne || t == HasMany }

// IsInverse reports whether the relation kind is a non-materialized
// back-reference.
func (t RelationType) IsInverse() bool { return !t.IsOwning() }

// DocumentType is the in-memory representation of one document type. It is
// constructed once at load time by the Registry and immutable thereafter;
// the Registry owns every DocumentType for the process lifetime.
type DocumentType struct {
	ID        DocumentTypeID
	Kind      Kind
	Info      Info
	Options   *Options
	Fields    map[AttributeID]FieldSpec
	Relations map[AttributeID]RelationSpec
}

// Info carries descriptive metadata of a document type.
type Info struct {
	Title        string
	Description  string
	SingularName DocumentTypeID
	PluralName   DocumentTypeID
}

// Options are the optional behaviors a document type opts into.
type Options struct {
	DraftAndPublish bool
	Localizations   []LocaleID
}

// FieldSpec describes one scalar field.
type FieldSpec struct {
	Type        AttributeType
	Unique      bool
	Required    bool
	Localized   bool
	Constraints *Constraints
}

// Constraints are optional validation limits on a field.
type Constraints struct {
	Pattern       string
	MinimalLength int
	MaximalLength int
}

// RelationSpec describes one relation to another document type. After the
// Registry's link pass, Target() resolves to the loaded target type.
type RelationSpec struct {
	Type     RelationType
	TargetID DocumentTypeID
	Ordering bool

	target *DocumentType
}

// Target returns the resolved target document type. It is non-nil for every
// relation in a successfully loaded Registry.
func (r RelationSpec) Target() *DocumentType { return r.target }

// HasLocalization reports whether any locale variants are configured.
func (d *DocumentType) HasLocalization() bool {
	return d.Options != nil && len(d.Options.Localizations) > 0
}

// HasDraftAndPublish reports whether the type uses the draft/publish
// lifecycle.
func (d *DocumentType) HasDraftAndPublish() bool {
	return d.Options != nil && d.Options.DraftAndPublish
}

// FieldIDs returns the field attribute ids sorted lexicographically. Column
// order in derivation and select lists follows this order so that repeated
// runs produce identical SQL.
func (d *DocumentType) FieldIDs() []AttributeID {
	ids := make([]AttributeID, 0, len(d.Fields))
	for id := range d.Fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].value < ids[j].value })
	return ids
}

// RelationIDs returns the relation attribute ids sorted lexicographically.
func (d *DocumentType) RelationIDs() []AttributeID {
	ids := make([]AttributeID, 0, len(d.Relations))
	for id := range d.Relations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].value < ids[j].value })
	return ids
}

// MainTableName is the SQL name of the type's main table.
func (d *DocumentType) MainTableName() string { return d.ID.Normalized() }

// LocalizationTableName is the SQL name of the type's localization side
// table. Meaningful only when HasLocalization is true.
func (d *DocumentType) LocalizationTableName() string {
	return d.MainTableName() + "_localization"
}

// RelationTableName is the SQL name of the junction table for the given
// owning relation attribute.
func (d *DocumentType) RelationTableName(attr AttributeID) string {
	return d.MainTableName() + "_" + attr.Normalized() + "_relation"
}

// RelationColumnName is the SQL name of the column referencing this type's
// rows from a junction table, derived from the singular name.
func (d *DocumentType) RelationColumnName() string {
	return d.Info.SingularName.Normalized() + "_id"
}
