// File: version.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ringpmd

import (
	"time"

	"github.com/netgroup-polito/ringpmd/api"
)

// Version is the driver's semantic version, bumped on release.
const Version = "0.1.0"

var buildTag = "dev"

var processStart = time.Now()

// Info returns build/runtime metadata for external tooling (status
// endpoints, CLI --version output).
func Info() api.ServiceInfo {
	return api.ServiceInfo{
		Name:      "ringpmd",
		Version:   Version,
		Build:     buildTag,
		StartedAt: processStart,
	}
}
