package application

import (
	"fmt"

	"github.com/reprokit/cook/internal/domain"
)

// migration transforms a recipe document from one schema version to the
// next. Migrations are pure document-to-document functions and total:
// they always produce a structurally valid input for the next step or
// for final validation.
type migration struct {
	// to is the version the migration produces.
	to string
	// apply rewrites the document in place and returns it.
	apply func(doc map[string]any) map[string]any
}

// migrations maps a schema version to the migration leading to the next
// one. The chain is followed until CurrentVersion is reached, so loading
// a document at any listed version is supported.
var migrations = map[string]migration{
	"0.1": {to: "0.2", apply: migrateV01ToV02},
	"0.2": {to: "0.3", apply: migrateV02ToV03},
}

// migrateDocument walks the migration chain from the document's declared
// version to CurrentVersion. A document already at CurrentVersion passes
// through untouched, making migration idempotent. Unknown versions fail
// with a RecipeFormatError.
func migrateDocument(doc map[string]any) (map[string]any, error) {
	for {
		version := documentVersion(doc)
		if version == CurrentVersion {
			return doc, nil
		}
		step, ok := migrations[version]
		if !ok {
			return nil, domain.NewRecipeFormatError(FormatType,
				fmt.Errorf("unsupported recipe version %q", version))
		}
		doc = step.apply(doc)
		setDocumentVersion(doc, step.to)
	}
}

// documentVersion reads format.version from a raw document, returning
// the empty string when absent.
func documentVersion(doc map[string]any) string {
	format, ok := doc["format"].(map[string]any)
	if !ok {
		return ""
	}
	version, _ := format["version"].(string)
	return version
}

func setDocumentVersion(doc map[string]any, version string) {
	format, ok := doc["format"].(map[string]any)
	if !ok {
		format = map[string]any{"type": FormatType}
		doc["format"] = format
	}
	format["version"] = version
}

// migrateV01ToV02 relocates the flat top-level configuration of version
// 0.1 documents into the settings and directories sub-structures
// introduced with 0.2.
func migrateV01ToV02(doc map[string]any) map[string]any {
	settings, _ := doc["settings"].(map[string]any)
	if settings == nil {
		settings = map[string]any{}
	}
	for _, key := range []string{"default_package", "autosave_plots", "write_history"} {
		if v, ok := doc[key]; ok {
			settings[key] = v
			delete(doc, key)
		}
	}
	if len(settings) > 0 {
		doc["settings"] = settings
	}

	directories, _ := doc["directories"].(map[string]any)
	if directories == nil {
		directories = map[string]any{}
	}
	if v, ok := doc["output_directory"]; ok {
		directories["output"] = v
		delete(doc, "output_directory")
	}
	if v, ok := doc["datasets_source_directory"]; ok {
		directories["datasets_source_directory"] = v
		delete(doc, "datasets_source_directory")
	}
	if len(directories) > 0 {
		doc["directories"] = directories
	}
	return doc
}

// migrateV02ToV03 renames directories.datasets_source_directory to the
// shorter datasets_source used since 0.3.
func migrateV02ToV03(doc map[string]any) map[string]any {
	directories, ok := doc["directories"].(map[string]any)
	if !ok {
		return doc
	}
	if v, ok := directories["datasets_source_directory"]; ok {
		directories["datasets_source"] = v
		delete(directories, "datasets_source_directory")
	}
	return doc
}
