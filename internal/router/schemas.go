package router

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/deppfellow/routekit/internal/validation"
)

//go:embed schemas/*.json
var sharedSchemas embed.FS

// registerSharedSchemas adds every embedded schema under its file name,
// e.g. "pagination.json".
func registerSharedSchemas(registry *validation.Registry) error {
	entries, err := fs.ReadDir(sharedSchemas, "schemas")
	if err != nil {
		return fmt.Errorf("failed to read shared schemas: %w", err)
	}

	for _, entry := range entries {
		doc, err := fs.ReadFile(sharedSchemas, path.Join("schemas", entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read shared schema %s: %w", entry.Name(), err)
		}

		if err := registry.Register(entry.Name(), doc); err != nil {
			return err
		}
	}

	return nil
}
