package sandbox

import "testing"

func TestPresets(t *testing.T) {
	edu := Educational()
	if edu.Limits.MemoryMB != 64 || edu.Limits.CPUTimeMS != 5000 {
		t.Fatalf("educational preset has the wrong limits: %+v", edu.Limits)
	}
	res := Restricted()
	if res.Limits.MemoryMB != 16 || res.Limits.CPUTimeMS != 1000 {
		t.Fatalf("restricted preset has the wrong limits: %+v", res.Limits)
	}
	if edu.Limits.FileAccess || edu.Limits.NetworkAccess {
		t.Fatalf("no preset should grant I/O")
	}
}

func TestCheckSourceFiles(t *testing.T) {
	sb := Restricted()
	for _, source := range []string{
		`let path = "/etc/passwd"`,
		`read_file("data.txt")`,
		`let f = File`,
		`std::fs::read("x")`,
		`write_file("/tmp/out", data)`,
	} {
		if e := sb.CheckSource(source); e == nil || e.ErrorId != "sandbox/permission/file" {
			t.Fatalf("source %q should be denied file access", source)
		}
	}
	// Names that merely contain a denied word must pass.
	for _, source := range []string{
		`let filename = 1`,
		`let profile = "x"`,
		`1 + 2`,
	} {
		if e := sb.CheckSource(source); e != nil {
			t.Fatalf("source %q should be allowed, got %s", source, e.ErrorId)
		}
	}
}

func TestCheckSourceNetwork(t *testing.T) {
	sb := Restricted()
	for _, source := range []string{
		`http_get("http://example.com")`,
		`connect_to("10.0.0.1")`,
		`std::net::TcpStream`,
	} {
		if e := sb.CheckSource(source); e == nil || e.ErrorId != "sandbox/permission/net" {
			t.Fatalf("source %q should be denied network access", source)
		}
	}
}

func TestCheckSourceGrantsOverride(t *testing.T) {
	sb := New(Limits{FileAccess: true, NetworkAccess: true})
	if e := sb.CheckSource(`read_file("/etc/passwd") + http_get("x")`); e != nil {
		t.Fatalf("a permissive sandbox should allow I/O references, got %s", e.ErrorId)
	}
}

func TestCheckMemory(t *testing.T) {
	sb := Restricted()
	if e := sb.CheckMemory(1024); e != nil {
		t.Fatalf("1KB should fit in 16MB, got %s", e.ErrorId)
	}
	if e := sb.CheckMemory(17 * 1024 * 1024); e == nil || e.ErrorId != "sandbox/memory" {
		t.Fatalf("17MB should exceed the 16MB limit")
	}
	unlimited := New(Limits{})
	if e := unlimited.CheckMemory(1 << 40); e != nil {
		t.Fatalf("a zero limit means unlimited")
	}
}
