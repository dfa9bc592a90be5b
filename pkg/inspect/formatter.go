// Package inspect formats the exposed device state for interactive
// tooling: the attribute table, capability set, and traffic counters.
package inspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/legion-toolkit/legion-core/pkg/attributes"
	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/registers"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes type, access, and unit information
	ShowMetadata bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatValue formats an attribute value for display.
func (f *Formatter) FormatValue(value any, unit string) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case string:
		return v

	case int64:
		if unit != "" {
			return fmt.Sprintf("%d %s", v, unit)
		}
		return fmt.Sprintf("%d", v)

	case uint64:
		if unit != "" {
			return fmt.Sprintf("%d %s", v, unit)
		}
		return fmt.Sprintf("%d", v)

	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatAttribute formats one attribute line: name, value, and with
// ShowMetadata the type/access/description columns.
func (f *Formatter) FormatAttribute(meta attributes.Metadata, value any, err error) string {
	var rendered string
	switch {
	case err != nil:
		rendered = "<" + registers.StatusOf(err).String() + ">"
	default:
		rendered = f.FormatValue(value, meta.Unit)
	}

	if !f.ShowMetadata {
		return fmt.Sprintf("%-14s %s", meta.Name, rendered)
	}
	return fmt.Sprintf("%-14s %-24s [%s %s] %s",
		meta.Name, rendered, meta.Type, meta.Access, meta.Description)
}

// FormatTable renders every attribute in registration order, reading
// each through the table. Attributes failing Unsupported render their
// status instead of a value; the listing itself never errors out.
func (f *Formatter) FormatTable(ctx context.Context, table *attributes.Table) string {
	var b strings.Builder
	for _, name := range table.Names() {
		attr, err := table.Get(name)
		if err != nil {
			continue
		}
		value, readErr := table.Read(ctx, name)
		b.WriteString(f.FormatAttribute(attr.Metadata(), value, readErr))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCapabilities renders the capability set one flag per line.
func (f *Formatter) FormatCapabilities(caps generation.Capabilities) string {
	var b strings.Builder
	for _, pair := range strings.Fields(caps.String()) {
		name, value, _ := strings.Cut(pair, ":")
		marker := "-"
		if value == "1" {
			marker = "+"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, name)
	}
	return b.String()
}

// FormatStats renders the firmware traffic counters.
func (f *Formatter) FormatStats(s registers.Stats) string {
	return fmt.Sprintf("reads=%d writes=%d errors=%d", s.Reads, s.Writes, s.Errors)
}
