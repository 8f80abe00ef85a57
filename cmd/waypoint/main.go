// Command waypoint plans and tracks the staged migration of a legacy codebase.
package main

import (
	"os"

	"github.com/huangsam/waypoint/cmd"
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/internal/iostore"
)

func main() {
	cmd.SetStoreManager(iostore.Manager)

	err := cmd.Execute()
	iostore.CloseStores()
	if err != nil {
		contract.Logger().WithError(err).Error("waypoint failed")
		os.Exit(1)
	}
}
