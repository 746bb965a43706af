package config

import (
	"time"

	"github.com/spf13/viper"
)

// GetStoreDir returns the directory (relative to the project root) holding
// anchors, journeys and blobs.
func GetStoreDir() string {
	return viper.GetString("store.dir")
}

// GetDebounceWindow returns the coalescing window for rapid repeated
// modifications to the same path.
func GetDebounceWindow() time.Duration {
	return time.Duration(viper.GetInt("watch.debounce_ms")) * time.Millisecond
}

// GetWatchBuffer returns the event channel capacity for tracking loops.
func GetWatchBuffer() int {
	return viper.GetInt("watch.buffer")
}

// GetIgnorePatterns returns glob patterns excluded from tree enumeration.
func GetIgnorePatterns() []string {
	return viper.GetStringSlice("scan.ignore")
}

// GetReplayShell returns the shell used to execute replayed commands.
func GetReplayShell() string {
	return viper.GetString("replay.shell")
}

// GetStrictReplay reports whether replay aborts on the first divergence.
func GetStrictReplay() bool {
	return viper.GetBool("replay.strict")
}
