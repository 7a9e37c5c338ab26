package environment

import (
	"os"
	"strconv"
	"strings"
)

// hasRunningChildren reports whether parentPid has any live descendant
// processes. The original relies on psutil's recursive Process.children();
// Go's standard library has no portable process-tree walk and nothing in
// the retrieved corpus provides a psutil equivalent, so this reads
// /proc directly on Linux (see DESIGN.md). Any error (non-Linux, /proc
// unavailable) is treated as "no children" so the read loop falls back
// to pure data-availability polling.
func hasRunningChildren(parentPid int) bool {
	return len(childPids(parentPid)) > 0
}

// childPids returns every PID whose /proc/<pid>/stat reports parentPid
// as its PPID, recursively.
func childPids(parentPid int) []int {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}

	children := make(map[int][]int)
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ppid, ok := readPPID(pid)
		if !ok {
			continue
		}
		children[ppid] = append(children[ppid], pid)
	}

	var out []int
	var walk func(pid int)
	walk = func(pid int) {
		for _, child := range children[pid] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(parentPid)
	return out
}

func readPPID(pid int) (int, bool) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0, false
	}
	// Format: pid (comm) state ppid ...; comm may contain spaces/parens,
	// so resume parsing after the last ')'.
	s := string(data)
	idx := strings.LastIndexByte(s, ')')
	if idx < 0 || idx+2 >= len(s) {
		return 0, false
	}
	fields := strings.Fields(s[idx+2:])
	if len(fields) < 2 {
		return 0, false
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return ppid, true
}
