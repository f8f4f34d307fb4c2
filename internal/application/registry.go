package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.OperationRegistry = (*DefaultOperationRegistry)(nil)

// BuiltinNamespace is the namespace the framework's own operations are
// registered under. It is always searched last.
const BuiltinNamespace = "cook"

// maxSuggestionDistance bounds how far a "did you mean" suggestion may
// be from the unknown operation type.
const maxSuggestionDistance = 3

// DefaultOperationRegistry implements the OperationRegistry interface,
// mapping (family, type) pairs from task declarations to constructible
// operations. Namespaces are searched in the caller-given order with the
// builtin namespace as fallback, mirroring the task-package →
// default-package → framework resolution order.
//
// Lookup is case-insensitive on the operation type; an unknown type
// fails with a ParameterError carrying the closest known type as a
// suggestion when one is plausibly a typo.
type DefaultOperationRegistry struct {
	// namespaces maps namespace → family → folded type name → factory.
	namespaces map[string]map[domain.Family]map[string]registration
	mu         sync.RWMutex
	folder     cases.Caser
}

type registration struct {
	// typeName is the canonical, unfolded operation type name.
	typeName string
	factory  ports.OperationFactory
}

// NewOperationRegistry creates an empty registry. Builtin operations
// are registered by the operations package via Register.
func NewOperationRegistry() *DefaultOperationRegistry {
	return &DefaultOperationRegistry{
		namespaces: make(map[string]map[domain.Family]map[string]registration),
		folder:     cases.Fold(),
	}
}

// Register adds a factory for an operation type under a namespace. The
// empty namespace targets the builtin table. Registering the same
// (namespace, family, type) twice fails, keeping dispatch unambiguous.
func (r *DefaultOperationRegistry) Register(namespace string, family domain.Family, opType string, factory ports.OperationFactory) error {
	if opType == "" {
		return fmt.Errorf("operation type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}
	if !family.Valid() {
		return fmt.Errorf("unknown operation family %q", family)
	}
	if namespace == "" {
		namespace = BuiltinNamespace
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	families, ok := r.namespaces[namespace]
	if !ok {
		families = make(map[domain.Family]map[string]registration)
		r.namespaces[namespace] = families
	}
	types, ok := families[family]
	if !ok {
		types = make(map[string]registration)
		families[family] = types
	}
	key := r.folder.String(opType)
	if _, exists := types[key]; exists {
		return fmt.Errorf("operation %s/%s is already registered in namespace %s", family, opType, namespace)
	}
	types[key] = registration{typeName: opType, factory: factory}
	return nil
}

// Create instantiates the operation named opType within the family,
// searching the given namespaces in order and the builtin namespace
// last. The two-phase construction contract is enforced here: the
// factory builds the operation from raw configuration, then SetDefaults
// and Validate run before the operation is handed out.
func (r *DefaultOperationRegistry) Create(family domain.Family, opType string, namespaces []string, config map[string]any) (ports.Operation, error) {
	if !family.Valid() {
		return nil, domain.NewParameterError(opType, "unknown operation kind %q", family)
	}

	reg, found := r.lookup(family, opType, namespaces)
	if !found {
		msg := fmt.Sprintf("unknown operation type %q for kind %s", opType, family)
		if suggestion := r.suggest(family, opType); suggestion != "" {
			msg = fmt.Sprintf("%s (did you mean %q?)", msg, suggestion)
		}
		return nil, domain.NewParameterError(opType, "%s", msg)
	}

	if config == nil {
		config = make(map[string]any)
	}
	op, err := reg.factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation %s: %w", reg.typeName, err)
	}

	// Set defaults, then sanitize: the ordering every operation's
	// construction must honor.
	op.SetDefaults()
	if err := op.Validate(); err != nil {
		return nil, &domain.ParameterError{Operation: reg.typeName, Err: err}
	}
	return op, nil
}

// lookup searches the namespaces in order, then the builtin namespace.
func (r *DefaultOperationRegistry) lookup(family domain.Family, opType string, namespaces []string) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := r.folder.String(opType)
	searched := make([]string, 0, len(namespaces)+1)
	for _, ns := range namespaces {
		if ns != "" {
			searched = append(searched, ns)
		}
	}
	searched = append(searched, BuiltinNamespace)

	for _, ns := range searched {
		if types, ok := r.namespaces[ns][family]; ok {
			if reg, ok := types[key]; ok {
				return reg, true
			}
		}
	}
	return registration{}, false
}

// suggest returns the registered type closest to the unknown one, when
// close enough to plausibly be a typo.
func (r *DefaultOperationRegistry) suggest(family domain.Family, opType string) string {
	key := r.folder.String(opType)
	best := ""
	bestDistance := maxSuggestionDistance + 1
	for _, candidate := range r.SupportedTypes(family) {
		d := levenshtein.ComputeDistance(key, r.folder.String(candidate))
		if d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}
	return best
}

// SupportedTypes lists the operation types registered for a family
// across all namespaces, sorted for stable diagnostics.
func (r *DefaultOperationRegistry) SupportedTypes(family domain.Family) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var types []string
	for _, families := range r.namespaces {
		for _, reg := range families[family] {
			if _, ok := seen[reg.typeName]; ok {
				continue
			}
			seen[reg.typeName] = struct{}{}
			types = append(types, reg.typeName)
		}
	}
	sort.Strings(types)
	return types
}
