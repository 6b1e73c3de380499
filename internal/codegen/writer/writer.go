// Package writer builds indented text for the hand-assembled artifacts: SQL
// schemas, GraphQL SDL and proto files.
package writer

import (
	"fmt"
	"strings"
)

// Syntax describes the comment and indentation style of a target language
type Syntax struct {
	Indent  string
	Comment string
}

var (
	SQL     = Syntax{Indent: "  ", Comment: "--"}
	GraphQL = Syntax{Indent: "  ", Comment: "#"}
	Proto   = Syntax{Indent: "  ", Comment: "//"}
)

// Writer accumulates lines with indentation
type Writer struct {
	sb          strings.Builder
	syntax      Syntax
	level       int
	prefix      string
	needsIndent bool
}

// New creates a Writer for the given syntax
func New(syntax Syntax) *Writer {
	return &Writer{syntax: syntax, needsIndent: true}
}

// Indent increases the indentation level
func (w *Writer) Indent() {
	w.level++
	w.prefix = strings.Repeat(w.syntax.Indent, w.level)
}

// Dedent decreases the indentation level
func (w *Writer) Dedent() {
	if w.level > 0 {
		w.level--
		w.prefix = strings.Repeat(w.syntax.Indent, w.level)
	}
}

// Write writes s without a newline
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.sb.WriteString(w.prefix)
		w.needsIndent = false
	}
	w.sb.WriteString(s)
}

func (w *Writer) Writef(format string, args ...any) {
	w.Write(fmt.Sprintf(format, args...))
}

// Line writes s followed by a newline
func (w *Writer) Line(s string) {
	w.Write(s)
	w.Newline()
}

func (w *Writer) Linef(format string, args ...any) {
	w.Writef(format, args...)
	w.Newline()
}

func (w *Writer) Newline() {
	w.sb.WriteString("\n")
	w.needsIndent = true
}

// BlankLine separates blocks. Consecutive calls produce one empty line.
func (w *Writer) BlankLine() {
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "\n\n") {
		w.Newline()
	}
}

// Block writes opener, the indented content and closer
func (w *Writer) Block(opener, closer string, content func()) {
	w.Line(opener)
	w.Indent()
	content()
	w.Dedent()
	w.Line(closer)
}

// Comment writes each line of text as a comment in the writer's syntax
func (w *Writer) Comment(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		w.Linef("%s %s", w.syntax.Comment, strings.TrimSpace(line))
	}
}

func (w *Writer) String() string {
	return w.sb.String()
}

func (w *Writer) Bytes() []byte {
	return []byte(w.sb.String())
}
