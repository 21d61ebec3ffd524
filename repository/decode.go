package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strata-cms/strata/document"
	"github.com/strata-cms/strata/query"
	"github.com/strata-cms/strata/schema"
)

// scanTargets allocates one scan destination per selected column, typed by
// the column's role and declared field type. Scanning is positional, so the
// destinations follow the statement's select list exactly.
func scanTargets(columns []query.Selected) ([]any, error) {
	targets := make([]any, len(columns))
	for i, col := range columns {
		switch col.Role {
		case query.RoleDocumentID, query.RoleOwningID:
			targets[i] = new(int64)
		case query.RoleCreatedAt:
			targets[i] = new(time.Time)
		case query.RoleUpdatedAt, query.RolePublishedAt:
			targets[i] = new(sql.NullTime)
		case query.RoleLocale:
			targets[i] = new(sql.NullString)
		case query.RoleField:
			target, err := fieldTarget(col.FieldType)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col.Column.Name, err)
			}
			targets[i] = target
		default:
			return nil, fmt.Errorf("column %s: unknown column role %d", col.Column.Name, col.Role)
		}
	}
	return targets, nil
}

func fieldTarget(t schema.AttributeType) (any, error) {
	switch t {
	case schema.Uid, schema.Text, schema.Uuid:
		return new(sql.NullString), nil
	case schema.Integer:
		return new(sql.NullInt64), nil
	case schema.Decimal:
		return new(sql.NullFloat64), nil
	case schema.Boolean:
		return new(sql.NullBool), nil
	case schema.Date, schema.DateTime:
		return new(sql.NullTime), nil
	}
	return nil, fmt.Errorf("unknown attribute type %d", int(t))
}

// decodeRow assembles one scanned row into a document instance. For
// relation fetches the owning id column is returned separately for
// client-side grouping.
func decodeRow(doc *schema.DocumentType, columns []query.Selected, targets []any) (document.Instance, int64, error) {
	var (
		rowID       int64
		owningID    int64
		createdAt   time.Time
		updatedAt   sql.NullTime
		publishedAt sql.NullTime
		locale      sql.NullString
	)
	fields := make(map[string]document.Value, len(doc.Fields))

	for i, col := range columns {
		switch col.Role {
		case query.RoleDocumentID:
			rowID = *targets[i].(*int64)
		case query.RoleOwningID:
			owningID = *targets[i].(*int64)
		case query.RoleCreatedAt:
			createdAt = *targets[i].(*time.Time)
		case query.RoleUpdatedAt:
			updatedAt = *targets[i].(*sql.NullTime)
		case query.RolePublishedAt:
			publishedAt = *targets[i].(*sql.NullTime)
		case query.RoleLocale:
			locale = *targets[i].(*sql.NullString)
		case query.RoleField:
			value, err := fieldValue(col.FieldType, targets[i])
			if err != nil {
				return document.Instance{}, 0, fmt.Errorf("failed to decode field %s: %w", col.Attribute, err)
			}
			fields[col.Attribute.String()] = value
		}
	}

	instance := document.Instance{
		ID:             document.RowID(rowID),
		DocumentTypeID: doc.ID,
		Content: document.Content{
			Fields:      fields,
			Locale:      locale.String,
			Publication: publicationState(doc, createdAt, publishedAt),
		},
		Audit: document.Audit{
			CreatedAt: createdAt,
			UpdatedAt: auditUpdatedAt(createdAt, updatedAt),
			Version:   1,
		},
	}
	return instance, owningID, nil
}

// fieldValue converts one scanned destination into a typed domain value.
// The conversion follows the field's declared attribute type; NULL becomes
// the explicit Null value.
func fieldValue(t schema.AttributeType, target any) (document.Value, error) {
	switch t {
	case schema.Uid, schema.Text:
		v := target.(*sql.NullString)
		if !v.Valid {
			return document.Null{}, nil
		}
		return document.Text(v.String), nil
	case schema.Uuid:
		v := target.(*sql.NullString)
		if !v.Valid {
			return document.Null{}, nil
		}
		id, err := uuid.Parse(v.String)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", v.String, err)
		}
		return document.UUID(id), nil
	case schema.Integer:
		v := target.(*sql.NullInt64)
		if !v.Valid {
			return document.Null{}, nil
		}
		return document.Integer(v.Int64), nil
	case schema.Decimal:
		v := target.(*sql.NullFloat64)
		if !v.Valid {
			return document.Null{}, nil
		}
		return document.Decimal(v.Float64), nil
	case schema.Boolean:
		v := target.(*sql.NullBool)
		if !v.Valid {
			return document.Null{}, nil
		}
		return document.Boolean(v.Bool), nil
	case schema.Date:
		v := target.(*sql.NullTime)
		if !v.Valid {
			return document.Null{}, nil
		}
		return document.Date(v.Time), nil
	case schema.DateTime:
		v := target.(*sql.NullTime)
		if !v.Valid {
			return document.Null{}, nil
		}
		return document.DateTime(v.Time), nil
	}
	return nil, fmt.Errorf("unknown attribute type %d", int(t))
}

// publicationState derives the lifecycle position from the published_at
// column: absent means draft, present means published. Types without
// draft/publish support read as published since creation.
func publicationState(doc *schema.DocumentType, createdAt time.Time, publishedAt sql.NullTime) document.Publication {
	if !doc.HasDraftAndPublish() {
		return document.Publication{
			State:       document.Published,
			Revision:    1,
			PublishedAt: createdAt,
		}
	}
	if !publishedAt.Valid {
		return document.Publication{State: document.Draft, Revision: 1}
	}
	return document.Publication{
		State:       document.Published,
		Revision:    1,
		PublishedAt: publishedAt.Time,
	}
}

// auditUpdatedAt falls back to the creation timestamp while the row has
// never been updated.
func auditUpdatedAt(createdAt time.Time, updatedAt sql.NullTime) time.Time {
	if updatedAt.Valid {
		return updatedAt.Time
	}
	return createdAt
}
