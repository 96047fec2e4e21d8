package components

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"armature/internal/component"
	"armature/internal/faults"
	"armature/internal/guide"
)

const recipeExtension = ".yaml"

// LoadRecipes replaces built-in guide recipes with the YAML files in dir. Each
// file is named after the component type it overrides. A missing directory is
// not an error. It returns the overridden types, sorted.
func LoadRecipes(reg *component.Registry, dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "recipes", "read dir", dir, err)
	}
	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != recipeExtension {
			continue
		}
		typ := strings.TrimSuffix(entry.Name(), recipeExtension)
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, faults.Wrap(faults.ErrConfiguration, "recipes", "read", entry.Name(), err)
		}
		recipe, err := guide.ParseRecipe(data)
		if err != nil {
			return nil, faults.Wrap(faults.ErrConfiguration, "recipes", "parse", entry.Name(), err)
		}
		if err := reg.OverrideRecipe(typ, recipe); err != nil {
			return nil, err
		}
		loaded = append(loaded, typ)
	}
	sort.Strings(loaded)
	return loaded, nil
}
