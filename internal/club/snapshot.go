package club

import (
	_ "embed"
	"encoding/json"
)

//go:embed snapshot.json
var snapshotJSON []byte

// Snapshot returns the dataset bundled with the application: the fallback of
// last resort, always available and never network-dependent. Each call
// returns a fresh copy so callers can mutate freely. The embedded document
// carries no lastUpdated field and therefore reads as timestamp zero.
func Snapshot() *Dataset {
	var d Dataset
	if err := json.Unmarshal(snapshotJSON, &d); err != nil {
		// The snapshot is a build-time constant; a decode failure means the
		// binary itself is broken.
		panic("club: embedded snapshot is invalid: " + err.Error())
	}
	return d.Normalize()
}
