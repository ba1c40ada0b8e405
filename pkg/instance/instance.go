package instance

import (
	"os"

	"github.com/angelmondragon/procurement-backend/pkg/env"
)

// ID identifies this process in logs. It prefers PROCUREMENT_INSTANCE_ID,
// then the host name.
func ID() string {
	if id := env.Get("PROCUREMENT_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
