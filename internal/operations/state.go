package operations

import (
	"sync"
	"time"

	"posetl/internal/dataprocessing"
	"posetl/internal/files"
	"posetl/internal/pricing"
	"posetl/pkg/contracts/domain"
)

// OperationStatus represents the overall run status
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState represents the complete state of one pipeline run. Steps
// run one after another and hand their results on through the typed fields.
type OperationState struct {
	mu sync.RWMutex

	ID        string          `json:"id"`
	Status    OperationStatus `json:"status"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`
	Error     error           `json:"-"`

	steps []*StepState

	Files    []files.FileInfo
	Load     *dataprocessing.LoadResult
	Table    *domain.Table
	Features dataprocessing.FeatureStats
	Costs    pricing.CostStats
	Outputs  []SinkOutput
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the current run status
func (p *OperationState) GetStatus() OperationStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// AddStep registers the state of a step about to run
func (p *OperationState) AddStep(state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, state)
}

// GetStep returns the state of a specific step, or nil if it has not run
func (p *OperationState) GetStep(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.steps {
		if s.ID == stepID {
			return s
		}
	}
	return nil
}

// Steps returns the step states in execution order
func (p *OperationState) Steps() []*StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*StepState, len(p.steps))
	copy(out, p.steps)
	return out
}

// SetStepMetadata records a value on a step's state. Unknown steps are
// ignored so steps can be exercised outside a runner.
func (p *OperationState) SetStepMetadata(stepID, key string, value interface{}) {
	if s := p.GetStep(stepID); s != nil {
		s.SetMetadata(key, value)
	}
}

// PrimaryOutput returns the combined CSV if it was written
func (p *OperationState) PrimaryOutput() (SinkOutput, bool) {
	for _, out := range p.Outputs {
		if out.Primary && out.Error == "" {
			return out, true
		}
	}
	return SinkOutput{}, false
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}
