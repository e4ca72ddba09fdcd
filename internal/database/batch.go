package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var varPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Batch accumulates statements and runs them inside one transaction block.
// Variables are renamed per statement so two statements may both use $id.
//
//	b := database.NewBatch()
//	b.Add("UPDATE type::record($id) SET status = 'paid'", map[string]interface{}{"id": ticketID})
//	b.Add("UPDATE type::record($id) SET seats_sold += $n", map[string]interface{}{"id": eventID, "n": 2})
//	err := b.Run(ctx, db)
type Batch struct {
	statements []string
	vars       map[string]interface{}
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{vars: make(map[string]interface{})}
}

// Add appends a statement. Only variables present in vars are renamed.
func (b *Batch) Add(query string, vars map[string]interface{}) *Batch {
	n := len(b.statements) + 1
	rewritten := varPattern.ReplaceAllStringFunc(query, func(m string) string {
		name := m[1:]
		if _, ok := vars[name]; !ok {
			return m
		}
		return fmt.Sprintf("$s%d_%s", n, name)
	})
	for name, value := range vars {
		b.vars[fmt.Sprintf("s%d_%s", n, name)] = value
	}
	b.statements = append(b.statements, strings.TrimRight(strings.TrimSpace(rewritten), ";"))
	return b
}

// Len returns the number of queued statements
func (b *Batch) Len() int {
	return len(b.statements)
}

// Build renders the transaction text and merged variables.
func (b *Batch) Build() (string, map[string]interface{}) {
	if len(b.statements) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String(), b.vars
}

// Run executes the batch. Either every statement applies or none does.
func (b *Batch) Run(ctx context.Context, db Database) error {
	query, vars := b.Build()
	if query == "" {
		return nil
	}
	return db.Execute(ctx, query, vars)
}
