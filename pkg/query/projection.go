// Package query provides a fluent SQL query builder with projection maps
// that translate domain field names to database columns.
package query

import "strings"

// ProjectionMap maps domain field names to qualified database columns
// for a single table.
type ProjectionMap struct {
	schema string
	table  string
	alias  string
	order  []string
	fields map[string]string
}

// NewProjectionMap creates a projection for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		fields: make(map[string]string),
	}
}

// Project registers a column under a domain field name. Registration order
// determines column order in generated SELECT statements.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	p.order = append(p.order, field)
	p.fields[field] = p.alias + "." + column
	return p
}

// Table returns the qualified, aliased table reference.
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// Columns returns the comma-separated qualified column list in registration order.
func (p *ProjectionMap) Columns() string {
	cols := make([]string, len(p.order))
	for i, field := range p.order {
		cols[i] = p.fields[field]
	}
	return strings.Join(cols, ", ")
}

// Column returns the qualified column for a domain field name.
// Unknown fields fall back to the first registered column.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	if len(p.order) > 0 {
		return p.fields[p.order[0]]
	}
	return ""
}

// Has reports whether a domain field is registered.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.fields[field]
	return ok
}

// SortField identifies a domain field and sort direction.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSortFields parses a comma-separated sort expression. A "-" prefix
// marks a field as descending. Empty segments are skipped.
func ParseSortFields(expr string) []SortField {
	if expr == "" {
		return nil
	}

	var fields []SortField
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			fields = append(fields, SortField{Field: part[1:], Descending: true})
		} else {
			fields = append(fields, SortField{Field: part})
		}
	}
	return fields
}
