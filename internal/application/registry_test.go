package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// stubOperation records the construction hooks the registry must invoke.
type stubOperation struct {
	name        string
	family      domain.Family
	defaulted   bool
	validated   bool
	validateErr error
}

func (s *stubOperation) Name() string               { return s.name }
func (s *stubOperation) Family() domain.Family      { return s.family }
func (s *stubOperation) Version() string            { return "1.0.0" }
func (s *stubOperation) Parameters() map[string]any { return nil }
func (s *stubOperation) SetDefaults()               { s.defaulted = true }
func (s *stubOperation) Validate() error            { s.validated = true; return s.validateErr }

func stubFactory(op *stubOperation) ports.OperationFactory {
	return func(config map[string]any) (ports.Operation, error) { return op, nil }
}

// TestRegistryRegister covers the registration argument checks and the
// duplicate guard.
func TestRegistryRegister(t *testing.T) {
	registry := NewOperationRegistry()
	factory := stubFactory(&stubOperation{name: "Normalisation", family: domain.FamilyProcessing})

	require.NoError(t, registry.Register("", domain.FamilyProcessing, "Normalisation", factory))

	tests := []struct {
		name      string
		namespace string
		family    domain.Family
		opType    string
		factory   ports.OperationFactory
	}{
		{name: "empty type", family: domain.FamilyProcessing, factory: factory},
		{name: "nil factory", family: domain.FamilyProcessing, opType: "X"},
		{name: "unknown family", family: domain.Family("juggling"), opType: "X", factory: factory},
		{name: "duplicate", family: domain.FamilyProcessing, opType: "Normalisation", factory: factory},
		{name: "duplicate case-insensitive", family: domain.FamilyProcessing, opType: "NORMALISATION", factory: factory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, registry.Register(tt.namespace, tt.family, tt.opType, tt.factory))
		})
	}
}

// TestRegistryCreate verifies dispatch, the case-insensitive lookup, and
// the defaults-then-validate construction contract.
func TestRegistryCreate(t *testing.T) {
	registry := NewOperationRegistry()
	op := &stubOperation{name: "BaselineCorrection", family: domain.FamilyProcessing}
	require.NoError(t, registry.Register("", domain.FamilyProcessing, "BaselineCorrection", stubFactory(op)))

	created, err := registry.Create(domain.FamilyProcessing, "baselinecorrection", nil, nil)
	require.NoError(t, err, "Lookup must be case-insensitive.")
	assert.Same(t, ports.Operation(op), created)
	assert.True(t, op.defaulted, "SetDefaults must run before the operation is handed out.")
	assert.True(t, op.validated, "Validate must run before the operation is handed out.")
}

// TestRegistryCreateValidationFailure verifies that a failing Validate
// surfaces as a ParameterError naming the operation.
func TestRegistryCreateValidationFailure(t *testing.T) {
	registry := NewOperationRegistry()
	op := &stubOperation{
		name:        "Averaging",
		family:      domain.FamilyProcessing,
		validateErr: errors.New("window must be odd"),
	}
	require.NoError(t, registry.Register("", domain.FamilyProcessing, "Averaging", stubFactory(op)))

	_, err := registry.Create(domain.FamilyProcessing, "Averaging", nil, nil)
	var paramErr *domain.ParameterError
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "Averaging", paramErr.Operation)
}

// TestRegistryNamespaceOrder verifies that caller namespaces shadow the
// builtin table in the order given.
func TestRegistryNamespaceOrder(t *testing.T) {
	registry := NewOperationRegistry()
	builtin := &stubOperation{name: "builtin", family: domain.FamilyProcessing}
	custom := &stubOperation{name: "custom", family: domain.FamilyProcessing}
	require.NoError(t, registry.Register("", domain.FamilyProcessing, "Normalisation", stubFactory(builtin)))
	require.NoError(t, registry.Register("spectra", domain.FamilyProcessing, "Normalisation", stubFactory(custom)))

	created, err := registry.Create(domain.FamilyProcessing, "Normalisation", []string{"spectra"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", created.Name(), "The task namespace must shadow the builtin one.")

	created, err = registry.Create(domain.FamilyProcessing, "Normalisation", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "builtin", created.Name(), "Without namespaces the builtin table serves the type.")
}

// TestRegistryUnknownTypeSuggestion verifies the "did you mean"
// diagnostic for close misspellings and its absence for distant ones.
func TestRegistryUnknownTypeSuggestion(t *testing.T) {
	registry := NewOperationRegistry()
	op := &stubOperation{name: "Normalisation", family: domain.FamilyProcessing}
	require.NoError(t, registry.Register("", domain.FamilyProcessing, "Normalisation", stubFactory(op)))

	_, err := registry.Create(domain.FamilyProcessing, "Normalization", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "Normalisation"?`)

	_, err = registry.Create(domain.FamilyProcessing, "FourierTransform", nil, nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean",
		"Distant names must not produce a suggestion.")
}

// TestRegistrySupportedTypes verifies the sorted, deduplicated type
// listing across namespaces.
func TestRegistrySupportedTypes(t *testing.T) {
	registry := NewOperationRegistry()
	factory := stubFactory(&stubOperation{family: domain.FamilyProcessing})
	require.NoError(t, registry.Register("", domain.FamilyProcessing, "Normalisation", factory))
	require.NoError(t, registry.Register("", domain.FamilyProcessing, "Averaging", factory))
	require.NoError(t, registry.Register("spectra", domain.FamilyProcessing, "Averaging", factory))

	assert.Equal(t, []string{"Averaging", "Normalisation"}, registry.SupportedTypes(domain.FamilyProcessing))
	assert.Empty(t, registry.SupportedTypes(domain.FamilyModel))
}
