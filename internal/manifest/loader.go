// Package manifest loads recipe definitions from a recipes root folder into
// an artifact.Registry, applying the JSON Schema and warn-and-skip rules
// that keep one malformed recipe from aborting an entire build.
package manifest

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/forgecraft/recipeforge/internal/artifact"
	"github.com/forgecraft/recipeforge/internal/log"
	"github.com/forgecraft/recipeforge/internal/rferrors"
)

// versionEntry is one value in versions.json.
type versionEntry struct {
	Folder      string `json:"folder"`
	FolderAlias string `json:"folder_alias,omitempty"`
}

// rawDependency is a dependency entry from recipe.json before it has been
// resolved against its discriminator-specific schema.
type rawDependency struct {
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	FileName   string `json:"file_name,omitempty"`
	RecipeName string `json:"recipe_name,omitempty"`
	Version    string `json:"version,omitempty"`
}

// rawRecipe is the top-level shape of recipe.json.
type rawRecipe struct {
	RecipeType   string          `json:"recipe_type"`
	Dependencies []rawDependency `json:"dependencies"`
}

// Loader walks a recipes root folder and populates an artifact.Registry.
type Loader struct {
	registry *artifact.Registry
	logger   log.Logger
}

// New returns a Loader that registers artifacts into reg, logging
// warn-and-skip decisions via logger. A nil logger falls back to log.Default().
func New(reg *artifact.Registry, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{registry: reg, logger: logger}
}

// Load walks every immediate child directory of recipesRoot and registers
// every valid recipe version it finds. Malformed recipes are warned about
// and skipped rather than aborting the whole load; only an unreadable
// recipes root or an internal inconsistency (an unknown dependency type that
// passed schema validation) is returned as a fatal error.
func (l *Loader) Load(recipesRoot string) error {
	entries, err := os.ReadDir(recipesRoot)
	if err != nil {
		return rferrors.Wrap(rferrors.FatalConfig, "", "cannot read recipes root "+recipesRoot, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := l.loadRecipe(recipesRoot, entry.Name()); err != nil {
			return err
		}
	}

	return nil
}

// loadRecipe loads every version of a single named recipe directory.
func (l *Loader) loadRecipe(recipesRoot, name string) error {
	versionsPath := filepath.Join(recipesRoot, name, "versions.json")

	raw, err := os.ReadFile(versionsPath)
	if err != nil {
		l.logger.Warn("skipping recipe: no versions.json", "recipe", name, "path", versionsPath)
		return nil
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		l.logger.Warn("skipping recipe: versions.json is not valid JSON", "recipe", name, "err", err)
		return nil
	}

	if err := versionsSchema.Validate(payload); err != nil {
		l.logger.Warn("skipping recipe: versions.json failed schema validation", "recipe", name, "err", err)
		return nil
	}

	var versions map[string]versionEntry
	if err := json.Unmarshal(raw, &versions); err != nil {
		l.logger.Warn("skipping recipe: versions.json failed to decode", "recipe", name, "err", err)
		return nil
	}

	for versionTag, entry := range versions {
		if !validFolderName(entry.Folder) || (entry.FolderAlias != "" && !validFolderName(entry.FolderAlias)) {
			l.logger.Warn("skipping recipe: versions.json has an invalid folder name",
				"recipe", name, "version", versionTag)
			return nil
		}
	}

	for versionTag, entry := range versions {
		if err := l.loadVersion(recipesRoot, name, versionTag, entry); err != nil {
			return err
		}
	}

	return nil
}

// loadVersion loads a single version_tag's recipe.json and registers the
// resulting Recipe artifact and its dependencies.
func (l *Loader) loadVersion(recipesRoot, name, versionTag string, entry versionEntry) error {
	recipePath := filepath.Join(recipesRoot, name, entry.Folder, "recipe.json")

	raw, err := os.ReadFile(recipePath)
	if err != nil {
		l.logger.Warn("skipping version: no recipe.json", "recipe", name, "version", versionTag, "path", recipePath)
		return nil
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		l.logger.Warn("skipping version: recipe.json is not valid JSON", "recipe", name, "version", versionTag, "err", err)
		return nil
	}

	if err := recipeSchema.Validate(payload); err != nil {
		l.logger.Warn("skipping version: recipe.json failed schema validation", "recipe", name, "version", versionTag, "err", err)
		return nil
	}

	var rr rawRecipe
	if err := json.Unmarshal(raw, &rr); err != nil {
		l.logger.Warn("skipping version: recipe.json failed to decode", "recipe", name, "version", versionTag, "err", err)
		return nil
	}

	deps := make([]artifact.Dependency, 0, len(rr.Dependencies))
	for _, d := range rr.Dependencies {
		dep, err := l.registerDependency(d)
		if err != nil {
			var rfErr *rferrors.Error
			if errors.As(err, &rfErr) && rfErr.Category == rferrors.ManifestInvalid {
				l.logger.Warn("skipping version: invalid dependency", "recipe", name, "version", versionTag, "err", err)
				return nil
			}
			return err
		}
		deps = append(deps, dep)
	}

	buildSubfolder := entry.Folder
	if entry.FolderAlias != "" {
		buildSubfolder = entry.FolderAlias
	}

	rec := &artifact.Recipe{
		Name:            name,
		VersionTag:      versionTag,
		SourceSubfolder: entry.Folder,
		BuildSubfolder:  buildSubfolder,
		Dependencies:    deps,
		RecipeKind:      artifact.Kind(rr.RecipeType),
	}
	l.registry.Put(rec)

	return nil
}

// registerDependency resolves one schema-validated dependency entry into
// its artifact.Dependency, registering a Fetch artifact in the shared
// registry when the dependency is of type "fetch". The file name a fetch
// mounts under and a build dependency's recipe name carry the same
// constraints as folder names: both become path components, under
// /app/dependencies and under the build root respectively.
func (l *Loader) registerDependency(d rawDependency) (artifact.Dependency, error) {
	switch d.Type {
	case "fetch":
		normalized, err := artifact.NormalizeURL(d.URL)
		if err != nil {
			return nil, rferrors.Wrap(rferrors.ManifestInvalid, "", "invalid fetch URL "+d.URL, err)
		}

		fileName := d.FileName
		if fileName == "" {
			u, parseErr := url.Parse(normalized)
			if parseErr != nil {
				return nil, rferrors.Wrap(rferrors.ManifestInvalid, "", "invalid fetch URL "+d.URL, parseErr)
			}
			fileName = path.Base(u.Path)
		}
		if !validFolderName(fileName) {
			return nil, rferrors.New(rferrors.ManifestInvalid, "", "invalid fetch file_name "+fileName)
		}

		if _, err := l.registry.RegisterFetch(d.URL); err != nil {
			return nil, rferrors.Wrap(rferrors.ManifestInvalid, "", "invalid fetch URL "+d.URL, err)
		}

		return artifact.FetchDependency{URL: normalized, FileName: fileName}, nil

	case "build":
		if !validFolderName(d.RecipeName) {
			return nil, rferrors.New(rferrors.ManifestInvalid, "", "invalid build recipe_name "+d.RecipeName)
		}
		return artifact.RecipeDependency{RecipeName: d.RecipeName, Version: d.Version}, nil

	default:
		// The schema's oneOf discriminator should make this unreachable;
		// getting here means the type registry and the schema have drifted.
		return nil, rferrors.New(rferrors.FatalConfig, "", "unknown dependency type after schema validation: "+d.Type)
	}
}
