// Package diag exposes a running allocator Engine's state as a JSON
// snapshot over plain HTTP and HTTP/3, so an operator can inspect free
// list occupancy and heap growth without attaching a debugger.
package diag

import (
	"encoding/json"

	"github.com/adel-qod/malloc/internal/allocator"
	"github.com/adel-qod/malloc/internal/version"
)

// Snapshot is the wire format served at the snapshot endpoint.
type Snapshot struct {
	EngineVersion string          `json:"engine_version"`
	Stats         allocator.Stats `json:"stats"`
}

// Source is anything a Server can pull a Snapshot from. *allocator.Engine
// satisfies it via Stats.
type Source interface {
	Stats() allocator.Stats
}

// Build assembles a Snapshot from src.
func Build(src Source) Snapshot {
	return Snapshot{
		EngineVersion: version.EngineVersion,
		Stats:         src.Stats(),
	}
}

// Marshal renders a Snapshot as indented JSON, matching the rest of the
// module's config/CLI output style.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
