package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/reprokit/cook/internal/domain"
)

// RecipeLoader parses, migrates, and validates recipe documents.
//
// Outdated schema versions are migrated through a deterministic chain of
// version-to-version steps before validation (see migrations.go).
// Migrated and validated documents are cached by SHA256 of their
// normalized form, so repeatedly loading the same recipe skips the
// migration and validation work; every Load still returns a fresh
// Recipe, since the chef mutates recipes during cooking.
type RecipeLoader struct {
	// validator performs struct field validation on decoded recipes.
	validator *validator.Validate
	// cache stores migrated, validated document bytes by SHA256 hash.
	cache map[string][]byte
	// cacheMu guards cache during concurrent loads.
	cacheMu sync.RWMutex
	// sf collapses concurrent loads of identical documents.
	sf singleflight.Group
}

// NewRecipeLoader creates a loader with validation ready.
func NewRecipeLoader() (*RecipeLoader, error) {
	return &RecipeLoader{
		validator: validator.New(),
		cache:     make(map[string][]byte),
	}, nil
}

// LoadFromFile loads a recipe document from a YAML file.
func (rl *RecipeLoader) LoadFromFile(path string) (*Recipe, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return rl.Load(data)
}

// LoadFromReader loads a recipe document from any reader.
func (rl *RecipeLoader) LoadFromReader(r io.Reader) (*Recipe, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return rl.Load(data)
}

// Load parses a recipe document, migrates it to the current schema
// version, and validates it structurally. It fails with a
// RecipeFormatError when the format type is unrecognized, the version
// cannot be migrated, or validation finds a malformed task or dataset
// declaration.
func (rl *RecipeLoader) Load(data []byte) (*Recipe, error) {
	hash := hex.EncodeToString(func() []byte { h := sha256.Sum256(data); return h[:] }())

	v, err, _ := rl.sf.Do(hash, func() (any, error) {
		if doc, ok := rl.getCached(hash); ok {
			return doc, nil
		}
		doc, err := rl.migrateAndValidate(data)
		if err != nil {
			return nil, err
		}
		rl.setCached(hash, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	return rl.decode(v.([]byte))
}

// migrateAndValidate runs the full parse → migrate → validate pipeline
// and returns the normalized current-version document bytes.
func (rl *RecipeLoader) migrateAndValidate(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domain.NewRecipeFormatError("", fmt.Errorf("YAML decode failed: %w", err))
	}
	if doc == nil {
		return nil, domain.NewRecipeFormatError("", fmt.Errorf("empty document"))
	}

	format, _ := doc["format"].(map[string]any)
	formatType, _ := format["type"].(string)
	if formatType != FormatType {
		return nil, domain.NewRecipeFormatError(formatType,
			fmt.Errorf("unrecognized format type, expected %q", FormatType))
	}

	doc, err := migrateDocument(doc)
	if err != nil {
		return nil, err
	}

	if err := validateDocumentStructure(doc); err != nil {
		return nil, err
	}

	normalized, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}

	// Strict decode catches unknown fields and shape mismatches the
	// structural checks above cannot express.
	recipe, err := rl.decode(normalized)
	if err != nil {
		return nil, err
	}
	if err := rl.validator.Struct(recipe); err != nil {
		return nil, domain.NewRecipeFormatError(FormatType,
			fmt.Errorf("struct validation failed: %w", err))
	}
	if err := validateSemantics(recipe); err != nil {
		return nil, err
	}

	return normalized, nil
}

// decode strictly unmarshals normalized document bytes into a Recipe.
func (rl *RecipeLoader) decode(data []byte) (*Recipe, error) {
	var recipe Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&recipe); err != nil {
		return nil, domain.NewRecipeFormatError(FormatType,
			fmt.Errorf("YAML decode failed: %w", err))
	}
	return &recipe, nil
}

// validateDocumentStructure checks the raw document for the structural
// requirements strict decoding reports too coarsely: tasks must be a
// list, every task needs kind and type, and dataset entries must be
// strings or mappings with a source. Violations identify the offending
// index.
func validateDocumentStructure(doc map[string]any) error {
	if rawTasks, present := doc["tasks"]; present {
		tasks, ok := rawTasks.([]any)
		if !ok {
			return domain.NewRecipeFormatError(FormatType, fmt.Errorf("tasks must be a list"))
		}
		for i, rawTask := range tasks {
			task, ok := rawTask.(map[string]any)
			if !ok {
				return domain.NewTaskFormatError(i, fmt.Errorf("task must be a mapping"))
			}
			if s, _ := task["kind"].(string); s == "" {
				return domain.NewTaskFormatError(i, fmt.Errorf("task is missing kind"))
			}
			if s, _ := task["type"].(string); s == "" {
				return domain.NewTaskFormatError(i, fmt.Errorf("task is missing type"))
			}
		}
	}

	if rawDatasets, present := doc["datasets"]; present {
		datasets, ok := rawDatasets.([]any)
		if !ok {
			return domain.NewRecipeFormatError(FormatType, fmt.Errorf("datasets must be a list"))
		}
		for i, rawDecl := range datasets {
			switch decl := rawDecl.(type) {
			case string:
				if decl == "" {
					return domain.NewRecipeFormatError(FormatType,
						fmt.Errorf("dataset %d: source cannot be empty", i))
				}
			case map[string]any:
				if s, _ := decl["source"].(string); s == "" {
					return domain.NewRecipeFormatError(FormatType,
						fmt.Errorf("dataset %d: missing source", i))
				}
			default:
				return domain.NewRecipeFormatError(FormatType,
					fmt.Errorf("dataset %d: must be a string or a mapping with source", i))
			}
		}
	}

	return nil
}

// validateSemantics checks cross-field rules on the decoded recipe:
// task kinds must name known operation families and dataset labels must
// be unique within the initial list.
func validateSemantics(recipe *Recipe) error {
	for i, task := range recipe.Tasks {
		if !task.Family().Valid() {
			return domain.NewTaskFormatError(i, fmt.Errorf("unknown task kind %q", task.Kind))
		}
	}

	labels := make(map[string]int)
	for i, decl := range recipe.Datasets {
		label := decl.EffectiveLabel()
		if prev, exists := labels[label]; exists {
			return domain.NewRecipeFormatError(FormatType,
				fmt.Errorf("dataset %d: label %q already used by dataset %d", i, label, prev))
		}
		labels[label] = i
	}

	return nil
}

// marshalDocument re-encodes a raw document with consistent formatting,
// so cache keys and cached bytes are independent of incoming whitespace.
func marshalDocument(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize document: %w", err)
	}
	return buf.Bytes(), nil
}

func (rl *RecipeLoader) getCached(hash string) ([]byte, bool) {
	rl.cacheMu.RLock()
	defer rl.cacheMu.RUnlock()
	doc, ok := rl.cache[hash]
	return doc, ok
}

func (rl *RecipeLoader) setCached(hash string, doc []byte) {
	rl.cacheMu.Lock()
	defer rl.cacheMu.Unlock()
	rl.cache[hash] = doc
}

// ClearCache drops all cached documents, forcing subsequent loads to
// re-run migration and validation.
func (rl *RecipeLoader) ClearCache() {
	rl.cacheMu.Lock()
	defer rl.cacheMu.Unlock()
	rl.cache = make(map[string][]byte)
}
