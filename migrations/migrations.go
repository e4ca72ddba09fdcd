// Package migrations embeds the SurrealDB schema files so binaries and tests
// apply the same statements without locating the directory on disk.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.surql
var files embed.FS

// All returns the contents of every migration in file name order.
// seed.surql, if present, is left out.
func All() ([]string, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".surql") && e.Name() != "seed.surql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		b, err := fs.ReadFile(files, name)
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}

// Executor runs a SurrealQL script
type Executor interface {
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Apply runs every migration against db and returns how many ran
func Apply(ctx context.Context, db Executor) (int, error) {
	scripts, err := All()
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}
	return Run(ctx, db, scripts)
}

// Run executes scripts in order and stops at the first failure. The count
// returned is the number that succeeded.
func Run(ctx context.Context, db Executor, scripts []string) (int, error) {
	for i, script := range scripts {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := db.Execute(ctx, script, nil); err != nil {
			return i, fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return len(scripts), nil
}
