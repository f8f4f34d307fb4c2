// Package importers provides the builtin dataset importers and the
// factory resolving dataset sources to them.
package importers

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.ImporterFactory = (*DefaultImporterFactory)(nil)

// ImporterConstructor builds an importer for a source path.
type ImporterConstructor func(source string) ports.Importer

// DefaultImporterFactory resolves dataset sources to importers. An
// explicitly requested importer name wins; otherwise the source's file
// extension selects one. Externally supplied packages can register
// additional importers under their own names.
type DefaultImporterFactory struct {
	// byName maps lower-cased importer names to constructors.
	byName map[string]ImporterConstructor
	// byExtension maps lower-cased file extensions (with dot) to
	// constructors.
	byExtension map[string]ImporterConstructor
	mu          sync.RWMutex
}

// NewImporterFactory creates a factory with the builtin txt and csv
// importers registered.
func NewImporterFactory() *DefaultImporterFactory {
	f := &DefaultImporterFactory{
		byName:      make(map[string]ImporterConstructor),
		byExtension: make(map[string]ImporterConstructor),
	}
	txt := func(source string) ports.Importer { return NewTxtImporter(source) }
	csv := func(source string) ports.Importer { return NewCsvImporter(source) }
	f.RegisterImporter("TxtImporter", []string{".txt", ".dat"}, txt)
	f.RegisterImporter("CsvImporter", []string{".csv"}, csv)
	return f
}

// RegisterImporter adds an importer under a name and the extensions it
// claims. Later registrations win on extension conflicts, letting
// external packages override builtin detection.
func (f *DefaultImporterFactory) RegisterImporter(name string, extensions []string, constructor ImporterConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byName[strings.ToLower(name)] = constructor
	for _, ext := range extensions {
		f.byExtension[strings.ToLower(ext)] = constructor
	}
}

// GetImporter resolves a source to an importer. The explicit importer
// name is honored first; otherwise the file extension decides. No match
// fails with an ImporterNotFoundError. The pkg argument is accepted for
// the resolver's namespace plumbing; builtin resolution does not use it.
func (f *DefaultImporterFactory) GetImporter(source, pkg, explicit string) (ports.Importer, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if explicit != "" {
		constructor, ok := f.byName[strings.ToLower(explicit)]
		if !ok {
			return nil, &domain.ImporterNotFoundError{Source: source, Importer: explicit}
		}
		return constructor(source), nil
	}

	ext := strings.ToLower(filepath.Ext(source))
	constructor, ok := f.byExtension[ext]
	if !ok {
		return nil, &domain.ImporterNotFoundError{Source: source}
	}
	return constructor(source), nil
}
