package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"posetl/internal/dataprocessing"
	"posetl/internal/files"
	"posetl/internal/pricing"
	"posetl/pkg/contracts"
)

// RunManifest is the JSON record of one pipeline run
type RunManifest struct {
	RunID     string     `json:"run_id"`
	Version   string     `json:"version"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`

	Config map[string]interface{} `json:"config,omitempty"`

	Files   FileSummary        `json:"files"`
	Rows    RowSummary         `json:"rows"`
	Pricing *pricing.CostStats `json:"pricing,omitempty"`
	Outputs []SinkOutput       `json:"outputs"`
	Stages  []StageExecution   `json:"stages"`
}

// FileSummary counts the input files seen by the run
type FileSummary struct {
	Discovered int                          `json:"discovered"`
	TotalBytes int64                        `json:"total_bytes"`
	Loaded     []dataprocessing.LoadedFile  `json:"loaded"`
	Skipped    []dataprocessing.SkippedFile `json:"skipped"`
}

// RowSummary follows the row count through the pipeline
type RowSummary struct {
	Loaded          int `json:"loaded"`
	DroppedDates    int `json:"dropped_dates"`
	DroppedRequired int `json:"dropped_required"`
	Written         int `json:"written"`
	DistinctItems   int `json:"distinct_items"`
}

// SinkOutput records one output written by the run
type SinkOutput struct {
	Sink    string `json:"sink"`
	Path    string `json:"path"`
	Rows    int    `json:"rows"`
	Primary bool   `json:"primary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID   string                 `json:"stage_id"`
	StageName string                 `json:"stage_name"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Duration  string                 `json:"duration"`
	Status    string                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewRunManifest creates an empty manifest for runID
func NewRunManifest(runID string) *RunManifest {
	return &RunManifest{
		RunID:     runID,
		Version:   contracts.Version,
		StartTime: time.Now(),
		Status:    string(OperationStatusPending),
		Outputs:   []SinkOutput{},
		Stages:    []StageExecution{},
	}
}

// BuildManifest captures the final state of a run
func BuildManifest(state *OperationState, config map[string]interface{}) *RunManifest {
	m := NewRunManifest(state.ID)
	m.StartTime = state.StartTime
	m.Status = string(state.GetStatus())
	m.Config = config

	if state.EndTime != nil {
		end := *state.EndTime
		m.EndTime = &end
		m.Duration = state.Duration().String()
	}
	if state.Error != nil {
		m.Error = state.Error.Error()
	}

	m.Files.Discovered = len(state.Files)
	m.Files.TotalBytes = files.TotalSize(state.Files)
	if state.Load != nil {
		m.Files.Loaded = state.Load.Loaded
		m.Files.Skipped = state.Load.Skipped
		m.Rows.Loaded = state.Load.Rows()
	}

	m.Rows.DroppedDates = state.Features.DroppedDates
	m.Rows.DroppedRequired = state.Features.DroppedRequired
	m.Rows.DistinctItems = state.Features.DistinctItems
	if out, ok := state.PrimaryOutput(); ok {
		m.Rows.Written = out.Rows
	}

	if s := state.GetStep(StepIDPrice); s != nil && s.GetStatus() == StepStatusCompleted {
		costs := state.Costs
		m.Pricing = &costs
	}

	m.Outputs = append(m.Outputs, state.Outputs...)

	for _, s := range state.Steps() {
		exec := StageExecution{
			StageID:   s.ID,
			StageName: s.Name,
			Duration:  s.Duration().String(),
			Status:    string(s.GetStatus()),
			Metadata:  s.MetadataSnapshot(),
		}
		if s.StartTime != nil {
			exec.StartTime = *s.StartTime
		}
		if s.EndTime != nil {
			exec.EndTime = *s.EndTime
		}
		if s.Error != nil {
			exec.Error = s.Error.Error()
		}
		if len(exec.Metadata) == 0 {
			exec.Metadata = nil
		}
		m.Stages = append(m.Stages, exec)
	}

	return m
}

// IsStageCompleted checks if a stage has been completed
func (m *RunManifest) IsStageCompleted(stageID string) bool {
	for _, stage := range m.Stages {
		if stage.StageID == stageID && stage.Status == string(StepStatusCompleted) {
			return true
		}
	}
	return false
}

// SaveToFile writes the manifest as indented JSON. path is replaced only
// once the new content is complete.
func (m *RunManifest) SaveToFile(path string, manager *files.Manager) (err error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if manager == nil {
		manager = files.NewManager(nil)
	}
	tmp, err := manager.CreateTemp(path)
	if err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			manager.Discard(tmp.Name())
		}
	}()

	if _, err = tmp.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	if err = manager.ReplaceFile(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// LoadManifestFromFile reads a manifest written by SaveToFile
func LoadManifestFromFile(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}
