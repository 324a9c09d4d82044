// Package response renders tool output as structured plain text. Every
// tool handler funnels its result through a Builder so listings, detail
// views, and batch summaries share one visual language.
package response

import (
	"bytes"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Builder accumulates lines of formatted output. Methods return the
// receiver so calls chain.
type Builder struct {
	buf bytes.Buffer
}

func New() *Builder {
	return &Builder{}
}

func (b *Builder) writef(format string, args ...any) {
	fmt.Fprintf(&b.buf, format, args...)
}

// Header opens a top-level block, one per tool result.
func (b *Builder) Header(format string, args ...any) *Builder {
	b.writef("═══ "+format+" ═══\n", args...)
	return b
}

// Section opens a sub-block within a result, such as a per-rule summary
// inside an apply report.
func (b *Builder) Section(format string, args ...any) *Builder {
	b.writef("── "+format+" ──\n", args...)
	return b
}

// KeyValue writes one labelled field.
func (b *Builder) KeyValue(key string, value any) *Builder {
	b.writef("• %s: %v\n", key, value)
	return b
}

// Item writes an indented list entry.
func (b *Builder) Item(format string, args ...any) *Builder {
	b.writef("  → "+format+"\n", args...)
	return b
}

// Line writes an unadorned line.
func (b *Builder) Line(format string, args ...any) *Builder {
	b.writef(format+"\n", args...)
	return b
}

// Blank writes an empty line.
func (b *Builder) Blank() *Builder {
	b.buf.WriteByte('\n')
	return b
}

// Separator writes a horizontal rule between unrelated blocks.
func (b *Builder) Separator() *Builder {
	b.buf.WriteString("───────────────────────────────\n")
	return b
}

// Raw appends text verbatim, used for message bodies and extracted
// attachment text that must not be reflowed.
func (b *Builder) Raw(text string) *Builder {
	b.buf.WriteString(text)
	return b
}

// Build returns the accumulated text.
func (b *Builder) Build() string {
	return b.buf.String()
}

// TextResult wraps the accumulated text in a tool result. All handlers
// return through here.
func (b *Builder) TextResult() *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.buf.String()}},
	}
}
