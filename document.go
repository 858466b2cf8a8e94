package lakeq

import (
	"fmt"
	"strings"
	"time"
)

// System fields every stored document carries. They live beside the
// user content and are addressable from queries like any other field.
const (
	FieldID        = "_id"
	FieldType      = "_type"
	FieldCreatedAt = "_createdAt"
	FieldUpdatedAt = "_updatedAt"
	FieldRev       = "_rev"
	FieldRef       = "_ref"
)

const (
	draftsPrefix   = "drafts."
	versionsPrefix = "versions."
)

// Document is one stored content document. Content holds the user
// fields only; the system fields are kept in the typed columns and
// merged back in by Value.
type Document struct {
	ID        string         `json:"_id"`
	Type      string         `json:"_type"`
	Revision  string         `json:"_rev,omitempty"`
	CreatedAt time.Time      `json:"_createdAt,omitempty"`
	UpdatedAt time.Time      `json:"_updatedAt,omitempty"`
	Deleted   bool           `json:"-"`
	Content   map[string]any `json:"-"`
}

// Value assembles the JSON value queries evaluate against: the content
// fields plus the system fields. The result is a fresh map on every
// call so evaluation never mutates stored state.
func (d *Document) Value() map[string]any {
	out := make(map[string]any, len(d.Content)+5)
	for k, v := range d.Content {
		out[k] = v
	}

	out[FieldID] = d.ID
	out[FieldType] = d.Type

	if d.Revision != "" {
		out[FieldRev] = d.Revision
	}

	if !d.CreatedAt.IsZero() {
		out[FieldCreatedAt] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	if !d.UpdatedAt.IsZero() {
		out[FieldUpdatedAt] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}

	return out
}

// DocumentFromValue splits a raw JSON object into a Document. The _id
// and _type fields are required; the remaining fields become content.
func DocumentFromValue(v map[string]any) (*Document, error) {
	doc := &Document{Content: make(map[string]any, len(v))}

	for k, val := range v {
		switch k {
		case FieldID:
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: _id must be a string", ErrInvalidDocumentID)
			}

			doc.ID = s
		case FieldType:
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: _type must be a string", ErrInvalidDocumentType)
			}

			doc.Type = s
		case FieldRev:
			if s, ok := val.(string); ok {
				doc.Revision = s
			}
		case FieldCreatedAt:
			if s, ok := val.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					doc.CreatedAt = t
				}
			}
		case FieldUpdatedAt:
			if s, ok := val.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					doc.UpdatedAt = t
				}
			}
		default:
			doc.Content[k] = NormalizeValue(val)
		}
	}

	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// ValidateDocument checks the system fields of a document before it is
// stored or seeded. Types starting with an underscore are reserved for
// the system.
func ValidateDocument(d *Document) error {
	if d.ID == "" {
		return fmt.Errorf("%w: _id", ErrMissingSystemField)
	}

	if d.Type == "" {
		return fmt.Errorf("%w: _type", ErrMissingSystemField)
	}

	if !validDocumentID(d.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, d.ID)
	}

	if strings.HasPrefix(d.Type, "_") && !isSystemType(d.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentType, d.Type)
	}

	return nil
}

func validDocumentID(id string) bool {
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}

	return id != ""
}

func isSystemType(t string) bool {
	switch t {
	case "_system", "_grant", "_dataset":
		return true
	}

	return false
}

// DocumentIDKind classifies an id by its namespace prefix.
type DocumentIDKind int

const (
	IDPublished DocumentIDKind = iota
	IDDraft
	IDVersion
)

// String returns string representation of DocumentIDKind
func (k DocumentIDKind) String() string {
	switch k {
	case IDPublished:
		return "published"
	case IDDraft:
		return "draft"
	case IDVersion:
		return "version"
	default:
		return "unknown"
	}
}

// DocumentID is a parsed document identifier. Drafts live under
// "drafts.<base>", release versions under "versions.<release>.<base>",
// everything else is the published document itself.
type DocumentID struct {
	Kind    DocumentIDKind
	Base    string
	Release string
}

// ParseDocumentID splits an id into namespace and base id.
func ParseDocumentID(id string) DocumentID {
	if base, ok := strings.CutPrefix(id, draftsPrefix); ok && base != "" {
		return DocumentID{Kind: IDDraft, Base: base}
	}

	if rest, ok := strings.CutPrefix(id, versionsPrefix); ok {
		if release, base, found := strings.Cut(rest, "."); found && release != "" && base != "" {
			return DocumentID{Kind: IDVersion, Base: base, Release: release}
		}
	}

	return DocumentID{Kind: IDPublished, Base: id}
}

// FullID reconstructs the namespaced id.
func (d DocumentID) FullID() string {
	switch d.Kind {
	case IDDraft:
		return draftsPrefix + d.Base
	case IDVersion:
		return versionsPrefix + d.Release + "." + d.Base
	default:
		return d.Base
	}
}

// IsDraft reports whether the id lives in the drafts namespace.
func (d DocumentID) IsDraft() bool {
	return d.Kind == IDDraft
}
