package sheets

import (
	"context"
	"sync"
)

// MockExporter records exports for tests.
type MockExporter struct {
	ExportFunc func(ctx context.Context, snap Snapshot) error
	Exports    []Snapshot
	mu         sync.Mutex
}

// NewMockExporter creates a new mock exporter.
func NewMockExporter() *MockExporter {
	return &MockExporter{}
}

// Export implements Exporter.
func (m *MockExporter) Export(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	m.Exports = append(m.Exports, snap)
	fn := m.ExportFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, snap)
	}
	return nil
}

// Calls returns a copy of all recorded snapshots.
func (m *MockExporter) Calls() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Snapshot, len(m.Exports))
	copy(out, m.Exports)
	return out
}
