package instance

import "github.com/angelmondragon/checkout-bridge/pkg/env"

// ID names this process in logs. INSTANCE_ID wins, then the platform's DYNO,
// then "local".
func ID() string {
	return env.Get("INSTANCE_ID", env.Get("DYNO", "local"))
}
