// Package version reports the release version baked into the binary.
package version

import "runtime/debug"

// Value is stamped at release time via
// -ldflags "-X sightdex/internal/version.Value=v1.2.3".
var Value = "dev"

// String returns the stamped version, falling back to module build info for
// builds installed straight from the module proxy.
func String() string {
	if Value != "dev" {
		return Value
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return Value
}
