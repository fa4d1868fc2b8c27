package testutil

import (
	"context"
	"sync/atomic"

	"posetl/internal/operations"
)

// MockStage is a pipeline step whose behaviour is set per test. A zero
// ExecuteFunc or ValidateFunc succeeds.
type MockStage struct {
	IDValue   string
	NameValue string

	ExecuteFunc  func(ctx context.Context, state *operations.OperationState) error
	ValidateFunc func(state *operations.OperationState) error

	executeCalls  atomic.Int32
	validateCalls atomic.Int32
}

var _ operations.Step = (*MockStage)(nil)

// NewMockStage creates a mock step named after its id
func NewMockStage(id string) *MockStage {
	return &MockStage{IDValue: id, NameValue: id}
}

// FailingStage returns a mock step whose Execute returns err
func FailingStage(id string, err error) *MockStage {
	m := NewMockStage(id)
	m.ExecuteFunc = func(context.Context, *operations.OperationState) error { return err }
	return m
}

func (m *MockStage) ID() string   { return m.IDValue }
func (m *MockStage) Name() string { return m.NameValue }

func (m *MockStage) Execute(ctx context.Context, state *operations.OperationState) error {
	m.executeCalls.Add(1)
	if m.ExecuteFunc == nil {
		return nil
	}
	return m.ExecuteFunc(ctx, state)
}

func (m *MockStage) Validate(state *operations.OperationState) error {
	m.validateCalls.Add(1)
	if m.ValidateFunc == nil {
		return nil
	}
	return m.ValidateFunc(state)
}

// GetExecuteCalls returns how many times Execute ran
func (m *MockStage) GetExecuteCalls() int { return int(m.executeCalls.Load()) }

// GetValidateCalls returns how many times Validate ran
func (m *MockStage) GetValidateCalls() int { return int(m.validateCalls.Load()) }
