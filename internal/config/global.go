// SPDX-License-Identifier: GPL-2.0-or-later

package config

// configDirOverride redirects ConfigDir for tests.
var configDirOverride string

// SetConfigDirOverride makes ConfigDir return dir until Reset is called.
// It is intended for tests that must not touch the real user config.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset clears any test overrides.
func Reset() {
	configDirOverride = ""
}
