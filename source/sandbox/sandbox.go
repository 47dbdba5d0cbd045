package sandbox

// A sandbox wraps a single cell execution with resource limits. CPU time is
// enforced cooperatively, via the deadline the engines check at expression
// and instruction boundaries; memory via the host's accounting against the
// registry's estimate; filesystem and network access by inspecting the
// source for denied identifiers before execution starts. There is no thread
// interruption.

import (
	"regexp"
	"runtime"

	"github.com/paiml/ruchy-sub025/source/err"
)

type Limits struct {
	MemoryMB      int
	CPUTimeMS     int64
	StackKB       int
	HeapMB        int
	FileAccess    bool
	NetworkAccess bool
}

type Sandbox struct {
	Limits Limits
}

func New(limits Limits) *Sandbox {
	return &Sandbox{Limits: limits}
}

// Educational is the preset for classroom notebooks: roomy enough for real
// exercises, no I/O.
func Educational() *Sandbox {
	return New(Limits{MemoryMB: 64, CPUTimeMS: 5000, StackKB: 8192, HeapMB: 64})
}

// Restricted is the preset for untrusted code.
func Restricted() *Sandbox {
	return New(Limits{MemoryMB: 16, CPUTimeMS: 1000, StackKB: 1024, HeapMB: 16})
}

// The language has no I/O builtins yet, so referencing one of these names
// can only mean the cell is trying to reach outside the sandbox.
var (
	filePattern = regexp.MustCompile(`\b(File|open_file|read_file|write_file)\b|std::fs|/etc/|/tmp/`)
	netPattern  = regexp.MustCompile(`\b(http_get|http_post|TcpStream|UdpSocket|connect_to)\b|std::net`)
)

// CheckSource rejects cells that reference the filesystem or the network
// when the sandbox forbids them.
func (sb *Sandbox) CheckSource(source string) *err.Error {
	if !sb.Limits.FileAccess && filePattern.MatchString(source) {
		return err.CreateErr("sandbox/permission/file", nil)
	}
	if !sb.Limits.NetworkAccess && netPattern.MatchString(source) {
		return err.CreateErr("sandbox/permission/net", nil)
	}
	return nil
}

// CheckMemory compares an estimate of the session's footprint against the
// limit. The estimate is the caller's; the sandbox just applies the policy.
func (sb *Sandbox) CheckMemory(estimatedBytes int) *err.Error {
	if sb.Limits.MemoryMB > 0 && estimatedBytes > sb.Limits.MemoryMB*1024*1024 {
		return err.CreateErr("sandbox/memory", nil, sb.Limits.MemoryMB)
	}
	return nil
}

// HeapInUse reports the Go heap currently in use, for callers that want to
// fold host accounting into their estimate.
func HeapInUse() int {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return int(stats.HeapInuse)
}
