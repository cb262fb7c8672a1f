package lookup

import (
	"errors"
	"fmt"
	"strings"
)

// Format is a document output format.
type Format string

// Supported formats.
const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

// ErrInvalidFormat is returned for formats other than pdf and excel.
var ErrInvalidFormat = errors.New("lookup: invalid format")

// ParseFormat parses s case-insensitively. The empty string is not a format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatExcel:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool { return f == FormatPDF || f == FormatExcel }

// Kind selects what Resolve lists.
type Kind string

// Lookup kinds.
const (
	KindTeam             Kind = "team"
	KindTemplate         Kind = "template"
	KindTemplateByFormat Kind = "template-by-format"
	KindTemplateSchema   Kind = "template-schema"
)

// ErrUnknownKind is returned by Resolve for unsupported kinds.
var ErrUnknownKind = errors.New("lookup: unknown kind")

// Filters narrows a Resolve call.
type Filters struct {
	// Format filters templates. Required for KindTemplateByFormat.
	Format Format

	// TemplateID selects the template for KindTemplateSchema.
	TemplateID string
}

// Option is one selectable entry returned by the resolver. Options are built
// fresh for every call.
type Option struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug,omitempty"`
	Role        string       `json:"role,omitempty"`
	IsPersonal  bool         `json:"isPersonal,omitempty"`
	Format      Format       `json:"format,omitempty"`
	Description string       `json:"description,omitempty"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
	Field       *FieldSchema `json:"field,omitempty"`
}

// FieldType is the closed set of input field kinds a template variable may
// declare.
type FieldType string

// Field types.
const (
	FieldString   FieldType = "string"
	FieldText     FieldType = "text"
	FieldInteger  FieldType = "integer"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldDatetime FieldType = "datetime"
	FieldFile     FieldType = "file"
	FieldPassword FieldType = "password"
	FieldCopy     FieldType = "copy"
)

// Known reports whether t is one of the declared field types.
func (t FieldType) Known() bool {
	switch t {
	case FieldString, FieldText, FieldInteger, FieldNumber, FieldBoolean,
		FieldDatetime, FieldFile, FieldPassword, FieldCopy:
		return true
	}
	return false
}

// FieldSchema describes one variable of a template.
type FieldSchema struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	HelpText string    `json:"helpText,omitempty"`
}
