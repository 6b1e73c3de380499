// Package ddl renders the relational schema of a render context
package ddl

import (
	"fmt"
	"strings"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/writer"
	"github.com/veridock/text2api/internal/naming"
)

// FileName is where generators place the schema
const FileName = "schema.sql"

// Schema renders CREATE TABLE statements for every entity and join table.
// Foreign keys are added with ALTER TABLE after all tables exist, so the
// statement order never depends on the relation order.
func Schema(rc *render.Context) string {
	w := writer.New(writer.SQL)
	w.Comment("Generated by text2api.")

	for _, e := range rc.Entities {
		cols := []string{quote("id") + " TEXT PRIMARY KEY"}
		for _, f := range e.Fields {
			cols = append(cols, column(f))
		}
		w.BlankLine()
		table(w, e.Table(), cols)
	}

	for _, jt := range rc.JoinTables {
		left, right := rc.Entity(jt.Left), rc.Entity(jt.Right)
		cols := []string{
			fmt.Sprintf("%s TEXT NOT NULL REFERENCES %s (%s) ON DELETE CASCADE", quote(jt.LeftColumn()), quote(left.Table()), quote("id")),
			fmt.Sprintf("%s TEXT NOT NULL REFERENCES %s (%s) ON DELETE CASCADE", quote(jt.RightColumn()), quote(right.Table()), quote("id")),
			fmt.Sprintf("PRIMARY KEY (%s, %s)", quote(jt.LeftColumn()), quote(jt.RightColumn())),
		}
		w.BlankLine()
		table(w, jt.Name(), cols)
	}

	first := true
	for _, e := range rc.Entities {
		for _, f := range e.Fields {
			target := rc.Entity(f.References)
			if target == nil {
				continue
			}
			if first {
				w.BlankLine()
				first = false
			}
			w.Linef("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
				quote(e.Table()), quote("fk_"+e.Table()+"_"+f.Name), quote(f.Name), quote(target.Table()), quote("id"))
		}
	}
	return w.String()
}

func table(w *writer.Writer, name string, cols []string) {
	w.Block(fmt.Sprintf("CREATE TABLE %s (", quote(name)), ");", func() {
		for i, c := range cols {
			if i < len(cols)-1 {
				c += ","
			}
			w.Line(c)
		}
	})
}

func column(f render.Field) string {
	var b strings.Builder
	b.WriteString(quote(f.Name) + " " + f.SQLType())
	if f.Required {
		b.WriteString(" NOT NULL")
	}
	if f.Unique {
		b.WriteString(" UNIQUE")
	}
	if d := f.SQLDefault(); d != "" {
		b.WriteString(" DEFAULT " + d)
	}
	return b.String()
}

func quote(ident string) string {
	return `"` + naming.Snake(ident) + `"`
}
