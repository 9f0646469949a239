// Package iocache persists triage state and backlog health history.
package iocache

import (
	"sync"

	"github.com/huangsam/groomer/internal/contract"
)

// StoreManager manages the state and history stores.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	state        contract.StateStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetStateStore returns the key-value StateStore.
func (mgr *StoreManager) GetStateStore() contract.StateStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.state
}

// GetHistoryStore returns the HistoryStore.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
