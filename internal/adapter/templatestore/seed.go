package templatestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/planforge/planforge/internal/port/templates"
)

// SeedFromFile publishes the templates in a JSON file into the store and
// returns how many were loaded. A missing file is not an error; the store
// just starts empty and templates arrive through the API.
func SeedFromFile(ctx context.Context, store templates.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	var tpls []*templates.PlanTemplate
	if err := json.Unmarshal(data, &tpls); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, tpl := range tpls {
		if _, err := store.Put(ctx, tpl); err != nil {
			return 0, fmt.Errorf("seed template %q: %w", tpl.ToolName, err)
		}
	}
	return len(tpls), nil
}
