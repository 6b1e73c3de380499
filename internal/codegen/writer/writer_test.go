package writer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Indentation(t *testing.T) {
	// Test: nested blocks are indented with the syntax indent
	w := New(SQL)

	w.Block("CREATE TABLE notes (", ");", func() {
		w.Line("id TEXT PRIMARY KEY,")
		w.Block("CHECK (", ")", func() {
			w.Line("id <> ''")
		})
	})

	expected := "CREATE TABLE notes (\n  id TEXT PRIMARY KEY,\n  CHECK (\n    id <> ''\n  )\n);\n"
	assert.Equal(t, expected, w.String())
}

func TestWriter_BlankLine(t *testing.T) {
	// Test: consecutive BlankLine calls produce a single empty line
	w := New(Proto)

	w.Line("a")
	w.BlankLine()
	w.BlankLine()
	w.Line("b")

	lines := strings.Split(w.String(), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"a", "", "b", ""}, lines)
}

func TestWriter_BlankLineAtStart(t *testing.T) {
	// Test: a leading BlankLine writes nothing
	w := New(Proto)
	w.BlankLine()
	w.Line("syntax = \"proto3\";")

	assert.Equal(t, "syntax = \"proto3\";\n", w.String())
}

func TestWriter_Comment(t *testing.T) {
	// Test: comments use the syntax marker for every line
	tests := []struct {
		name     string
		syntax   Syntax
		text     string
		expected string
	}{
		{"sql", SQL, "generated", "-- generated\n"},
		{"graphql", GraphQL, "line one\n  line two", "# line one\n# line two\n"},
		{"proto", Proto, "x", "// x\n"},
		{"empty", Proto, "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(tt.syntax)
			w.Comment(tt.text)
			assert.Equal(t, tt.expected, w.String())
		})
	}
}

func TestWriter_CommentIndented(t *testing.T) {
	// Test: comments inside a block follow the indentation
	w := New(GraphQL)
	w.Block("type Query {", "}", func() {
		w.Comment("all notes")
		w.Linef("%s: %s", "listNotes", "[Note!]!")
	})

	assert.Equal(t, "type Query {\n  # all notes\n  listNotes: [Note!]!\n}\n", w.String())
}

func TestWriter_DedentBounds(t *testing.T) {
	// Test: Dedent below zero is ignored
	w := New(SQL)
	w.Dedent()
	w.Line("x")
	w.Indent()
	w.Writef("%d", 1)
	w.Newline()

	assert.Equal(t, "x\n  1\n", w.String())
	assert.Equal(t, []byte(w.String()), w.Bytes())
}
