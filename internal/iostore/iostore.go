// Package iostore persists migration state in SQL databases.
package iostore

import (
	"sync"

	"github.com/huangsam/waypoint/internal/contract"
)

// StoreManager holds the active MigrationStore.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	migration    contract.MigrationStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetMigrationStore returns the active MigrationStore.
func (mgr *StoreManager) GetMigrationStore() contract.MigrationStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.migration
}
