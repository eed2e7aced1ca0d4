package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

const (
	// This is the default value for cgroup v1's limit_in_bytes. This is not a
	// valid value and indicates that the memory is not restricted.
	// See https://unix.stackexchange.com/questions/420906/what-is-the-value-for-the-cgroups-limit-in-bytes-if-the-memory-is-not-restricte
	unrestrictedMemoryLimit = 9223372036854771712

	// cgroup v2 reports an unrestricted limit as "max".
	unrestrictedMemoryMax = "max"
)

var cgroupMemoryLimitLocations = []string{
	"/sys/fs/cgroup/memory.max",
	"/sys/fs/cgroup/memory/memory.limit_in_bytes",
}

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	totalMemory := memory.TotalMemory()

	for _, location := range cgroupMemoryLimitLocations {
		contents, err := os.ReadFile(location)
		if err != nil {
			continue
		}

		if limit, ok := parseCgroupMemoryLimit(string(contents)); ok && (totalMemory == 0 || limit < totalMemory) {
			return limit
		}
	}

	return totalMemory
}

func parseCgroupMemoryLimit(contents string) (uint64, bool) {
	value := strings.TrimSpace(contents)
	if value == unrestrictedMemoryMax {
		return 0, false
	}

	limit, err := strconv.ParseUint(value, 10, 64)
	if err != nil || limit == 0 || limit == unrestrictedMemoryLimit {
		return 0, false
	}
	return limit, true
}
