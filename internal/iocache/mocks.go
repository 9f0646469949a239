package iocache

import (
	"time"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetStateStore implements the StoreManager interface.
func (m *MockStoreManager) GetStateStore() contract.StateStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.StateStore)
	return store
}

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockStateStore is a mock implementation of StateStore for testing.
type MockStateStore struct {
	mock.Mock
}

var _ contract.StateStore = &MockStateStore{} // Compile-time check

// Get implements the StateStore interface.
func (m *MockStateStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the StateStore interface.
func (m *MockStateStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Delete implements the StateStore interface.
func (m *MockStateStore) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// Close implements the StateStore interface.
func (m *MockStateStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the StateStore interface.
func (m *MockStateStore) GetStatus() (schema.StateStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StateStatus), args.Error(1)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(repo string, startTime time.Time, configParams map[string]any) (int64, string, error) {
	args := m.Called(repo, startTime, configParams)
	return args.Get(0).(int64), args.String(1), args.Error(2)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID int64, endTime time.Time, totalIssues int) error {
	args := m.Called(runID, endTime, totalIssues)
	return args.Error(0)
}

// RecordReport implements the HistoryStore interface.
func (m *MockHistoryStore) RecordReport(runID int64, repo string, at time.Time, report schema.MetricsReport) error {
	args := m.Called(runID, repo, at, report)
	return args.Error(0)
}

// GetRecentSnapshots implements the HistoryStore interface.
func (m *MockHistoryStore) GetRecentSnapshots(repo string, limit int) ([]schema.HealthSnapshotRecord, error) {
	args := m.Called(repo, limit)
	snaps, _ := args.Get(0).([]schema.HealthSnapshotRecord)
	return snaps, args.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.HealthRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.HealthRunRecord)
	return runs, args.Error(1)
}

// GetAllSnapshots implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllSnapshots() ([]schema.HealthSnapshotRecord, error) {
	args := m.Called()
	snaps, _ := args.Get(0).([]schema.HealthSnapshotRecord)
	return snaps, args.Error(1)
}

// GetAllProblems implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllProblems() ([]schema.HealthProblemRecord, error) {
	args := m.Called()
	problems, _ := args.Get(0).([]schema.HealthProblemRecord)
	return problems, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
