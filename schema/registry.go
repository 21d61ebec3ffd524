// Package schema defines the identifier and document-type model of the
// content platform and the registry that loads declarative type definitions
// from disk.
//
// A registry is built once at startup and is immutable afterwards, so it is
// safe for unlimited concurrent readers:
//
//	reg, err := schema.Load("./schemas")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	article, ok := reg.Get(articleID)
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds every loaded DocumentType keyed by id. It is read-only
// after Load returns; no partial registry is ever exposed.
type Registry struct {
	types map[DocumentTypeID]*DocumentType
}

// Load reads every schema-definition file (.yaml, .yml or .json) in dir,
// builds the document types, and resolves relation targets in a second pass.
// Targets may reference types declared in any file, including files loaded
// later, which is why resolution cannot happen during the first pass. Any
// malformed file, duplicate id, or unresolvable target fails the whole load.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", dir, err)
	}

	types := make(map[DocumentTypeID]*DocumentType)
	for _, entry := range entries {
		if entry.IsDir() || !isSchemaFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if _, exists := types[doc.ID]; exists {
			return nil, fmt.Errorf("duplicate document type id %q declared in %s", doc.ID, path)
		}
		types[doc.ID] = doc
	}

	reg := &Registry{types: types}
	if err := reg.linkRelations(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Get returns the document type with the given id.
func (r *Registry) Get(id DocumentTypeID) (*DocumentType, bool) {
	d, ok := r.types[id]
	return d, ok
}

// All returns every loaded document type. The order is unspecified; callers
// that need a stable order must sort explicitly.
func (r *Registry) All() []*DocumentType {
	out := make([]*DocumentType, 0, len(r.types))
	for _, d := range r.types {
		out = append(out, d)
	}
	return out
}

// AllSorted returns every loaded document type sorted by id.
func (r *Registry) AllSorted() []*DocumentType {
	out := r.All()
	sort.Slice(out, func(i, j int) bool { return out[i].ID.value < out[j].ID.value })
	return out
}

// Len returns the number of loaded document types.
func (r *Registry) Len() int { return len(r.types) }

// linkRelations is the second pass: it rewrites every relation's textual
// target into a direct reference to the loaded target type. A dangling
// target is fatal; the process must not start with an unresolved schema
// graph.
func (r *Registry) linkRelations() error {
	for id, doc := range r.types {
		for attr, rel := range doc.Relations {
			target, ok := r.types[rel.TargetID]
			if !ok {
				return fmt.Errorf("document type %q: relation %q targets unknown document type %q", id, attr, rel.TargetID)
			}
			rel.target = target
			doc.Relations[attr] = rel
		}
	}
	return nil
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func loadFile(path string) (*DocumentType, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var record documentRecord
	if err := yaml.Unmarshal(content, &record); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	doc, err := record.toDocumentType(defaultIDFor(path))
	if err != nil {
		return nil, fmt.Errorf("invalid schema file %s: %w", path, err)
	}
	return doc, nil
}

// defaultIDFor derives a document type id from the file name, used when the
// file omits an explicit id.
func defaultIDFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// file records

type documentRecord struct {
	ID         string                     `yaml:"id"`
	Kind       string                     `yaml:"kind"`
	Type       string                     `yaml:"type"`
	Info       infoRecord                 `yaml:"info"`
	Options    *optionsRecord             `yaml:"options"`
	Attributes map[string]attributeRecord `yaml:"attributes"`
}

type infoRecord struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	SingularName string `yaml:"singularName"`
	PluralName   string `yaml:"pluralName"`
}

type optionsRecord struct {
	DraftAndPublish bool     `yaml:"draftAndPublish"`
	Localizations   []string `yaml:"localizations"`
}

// attributeRecord covers both field and relation entries; the presence of a
// relation kind decides which one it is.
type attributeRecord struct {
	Type         string             `yaml:"type"`
	Unique       bool               `yaml:"unique"`
	Required     bool               `yaml:"required"`
	Localized    bool               `yaml:"localized"`
	Constraints  *constraintsRecord `yaml:"constraints"`
	Relation     string             `yaml:"relation"`
	RelationType string             `yaml:"relationType"`
	Target       string             `yaml:"target"`
	Ordering     bool               `yaml:"ordering"`
}

type constraintsRecord struct {
	Pattern       string `yaml:"pattern"`
	MinimalLength int    `yaml:"minimalLength"`
	MaximalLength int    `yaml:"maximalLength"`
}

func (rec documentRecord) toDocumentType(fallbackID string) (*DocumentType, error) {
	rawID := rec.ID
	if rawID == "" {
		rawID = fallbackID
	}
	id, err := NewDocumentTypeID(rawID)
	if err != nil {
		return nil, err
	}

	kind, err := parseKind(rec.Kind, rec.Type)
	if err != nil {
		return nil, err
	}

	info, err := rec.Info.toInfo()
	if err != nil {
		return nil, err
	}

	var options *Options
	if rec.Options != nil {
		options, err = rec.Options.toOptions()
		if err != nil {
			return nil, err
		}
	}

	doc := &DocumentType{
		ID:        id,
		Kind:      kind,
		Info:      info,
		Options:   options,
		Fields:    make(map[AttributeID]FieldSpec),
		Relations: make(map[AttributeID]RelationSpec),
	}

	for rawAttr, attr := range rec.Attributes {
		attrID, err := NewAttributeID(rawAttr)
		if err != nil {
			return nil, err
		}
		if _, dup := doc.Fields[attrID]; dup {
			return nil, fmt.Errorf("duplicate attribute id %q", attrID)
		}
		if _, dup := doc.Relations[attrID]; dup {
			return nil, fmt.Errorf("duplicate attribute id %q", attrID)
		}

		if attr.isRelation() {
			rel, err := attr.toRelationSpec()
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", attrID, err)
			}
			doc.Relations[attrID] = rel
		} else {
			field, err := attr.toFieldSpec()
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", attrID, err)
			}
			doc.Fields[attrID] = field
		}
	}

	return doc, nil
}

func (rec infoRecord) toInfo() (Info, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return Info{}, fmt.Errorf("info.title is required")
	}
	singular, err := NewDocumentTypeID(rec.SingularName)
	if err != nil {
		return Info{}, fmt.Errorf("info.singularName: %w", err)
	}
	plural, err := NewDocumentTypeID(rec.PluralName)
	if err != nil {
		return Info{}, fmt.Errorf("info.pluralName: %w", err)
	}
	return Info{
		Title:        strings.TrimSpace(rec.Title),
		Description:  strings.TrimSpace(rec.Description),
		SingularName: singular,
		PluralName:   plural,
	}, nil
}

func (rec optionsRecord) toOptions() (*Options, error) {
	locales := make([]LocaleID, 0, len(rec.Localizations))
	seen := make(map[LocaleID]bool)
	for _, raw := range rec.Localizations {
		locale, err := NewLocaleID(raw)
		if err != nil {
			return nil, fmt.Errorf("options.localizations: %w", err)
		}
		if seen[locale] {
			continue
		}
		seen[locale] = true
		locales = append(locales, locale)
	}
	return &Options{
		DraftAndPublish: rec.DraftAndPublish,
		Localizations:   locales,
	}, nil
}

func (rec attributeRecord) isRelation() bool {
	return rec.Relation != "" || rec.RelationType != ""
}

func (rec attributeRecord) toFieldSpec() (FieldSpec, error) {
	t, err := parseAttributeType(rec.Type)
	if err != nil {
		return FieldSpec{}, err
	}
	var constraints *Constraints
	if rec.Constraints != nil {
		constraints = &Constraints{
			Pattern:       rec.Constraints.Pattern,
			MinimalLength: rec.Constraints.MinimalLength,
			MaximalLength: rec.Constraints.MaximalLength,
		}
	}
	return FieldSpec{
		Type:        t,
		Unique:      rec.Unique,
		Required:    rec.Required,
		Localized:   rec.Localized,
		Constraints: constraints,
	}, nil
}

func (rec attributeRecord) toRelationSpec() (RelationSpec, error) {
	raw := rec.Relation
	if raw == "" {
		raw = rec.RelationType
	}
	t, err := parseRelationType(raw)
	if err != nil {
		return RelationSpec{}, err
	}
	target, err := NewDocumentTypeID(rec.Target)
	if err != nil {
		return RelationSpec{}, fmt.Errorf("relation target: %w", err)
	}
	return RelationSpec{
		Type:     t,
		TargetID: target,
		Ordering: rec.Ordering,
	}, nil
}

func parseKind(kind, typ string) (Kind, error) {
	raw := kind
	if raw == "" {
		raw = typ
	}
	switch strings.TrimSpace(raw) {
	case "collection", "collectionType":
		return Collection, nil
	case "single", "singleType":
		return SingleType, nil
	case "":
		return Collection, fmt.Errorf("kind is required")
	}
	return Collection, fmt.Errorf("unknown document kind %q", raw)
}

func parseAttributeType(raw string) (AttributeType, error) {
	switch strings.TrimSpace(raw) {
	case "uid":
		return Uid, nil
	case "uuid":
		return Uuid, nil
	case "text", "string":
		return Text, nil
	case "integer":
		return Integer, nil
	case "decimal":
		return Decimal, nil
	case "date":
		return Date, nil
	case "datetime":
		return DateTime, nil
	case "boolean":
		return Boolean, nil
	case "":
		return Text, fmt.Errorf("field type is required")
	}
	return Text, fmt.Errorf("unknown field type %q", raw)
}

func parseRelationType(raw string) (RelationType, error) {
	switch strings.TrimSpace(raw) {
	case "hasOne":
		return HasOne, nil
	case "hasMany":
		return HasMany, nil
	case "belongsToOne":
		return BelongsToOne, nil
	case "belongsToMany":
		return BelongsToMany, nil
	}
	return HasOne, fmt.Errorf("unknown relation kind %q", raw)
}
