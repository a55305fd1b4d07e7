package collect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edeline-labs/assurance-agent/internal/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCPUSamplerParsesPerCPULines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "stat", "cpu  100 10 50 800 5 0 2 0 0 0\ncpu0 50 5 25 400 2 0 1 0 0 0\ncpu1 50 5 25 400 3 0 1 0 0 0\nintr 12345\n")

	st := store.New()
	s := &CPUSampler{Path: path}
	if err := s.Sample(st); err != nil {
		t.Fatalf("Sample: %v", err)
	}

	raw, ok := st.LookupBucket("stat/cpu")
	if !ok {
		t.Fatalf("expected stat/cpu bucket to exist")
	}
	names := raw.ChildNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 cpu children (cpu0, cpu1), got %v", names)
	}
	cpu0, ok := raw.LookupChild("cpu0")
	if !ok {
		t.Fatalf("expected cpu0 child")
	}
	idle, ok := cpu0.LookupRB("idle")
	if !ok || idle.Top().IntValue() != 400 {
		t.Fatalf("expected cpu0 idle=400, got ok=%v val=%v", ok, idle)
	}
}

func TestNetSamplerSkipsHeaderAndParsesColumns(t *testing.T) {
	dir := t.TempDir()
	content := "Inter-|   Receive                                                |  Transmit\n" +
		" face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed\n" +
		"  eth0: 2048      10    0    3    0     0          0         0     4096      20    0    1    0     0       0          0\n"
	path := writeFile(t, dir, "net_dev", content)

	st := store.New()
	s := &NetSampler{Path: path}
	if err := s.Sample(st); err != nil {
		t.Fatalf("Sample: %v", err)
	}

	raw, ok := st.LookupBucket("net/dev")
	if !ok {
		t.Fatalf("expected net/dev bucket")
	}
	eth0, ok := raw.LookupChild("eth0")
	if !ok {
		t.Fatalf("expected eth0 child")
	}
	rxBytes, _ := eth0.LookupRB("rx_bytes")
	if rxBytes.Top().IntValue() != 2048 {
		t.Fatalf("expected rx_bytes=2048, got %v", rxBytes.Top().IntValue())
	}
	rxDrop, _ := eth0.LookupRB("rx_drop")
	if rxDrop.Top().IntValue() != 3 {
		t.Fatalf("expected rx_drop=3, got %v", rxDrop.Top().IntValue())
	}
}

func TestDiskSamplerSkipsPartitions(t *testing.T) {
	dir := t.TempDir()
	content := "   8       0 sda 100 0 2000 50 200 0 4000 80 0 120 130\n" +
		"   8       1 sda1 10 0 200 5 20 0 400 8 0 12 13\n"
	path := writeFile(t, dir, "diskstats", content)

	st := store.New()
	s := &DiskSampler{Path: path}
	if err := s.Sample(st); err != nil {
		t.Fatalf("Sample: %v", err)
	}

	raw, _ := st.LookupBucket("diskstats")
	if _, ok := raw.LookupChild("sda1"); ok {
		t.Fatalf("expected partition sda1 to be skipped")
	}
	sda, ok := raw.LookupChild("sda")
	if !ok {
		t.Fatalf("expected whole-disk sda child")
	}
	rs, _ := sda.LookupRB("read_sectors")
	if rs.Top().IntValue() != 2000 {
		t.Fatalf("expected read_sectors=2000, got %v", rs.Top().IntValue())
	}
}

func TestMemSamplerReadsTotalAndAvailable(t *testing.T) {
	dir := t.TempDir()
	content := "MemTotal:       16384000 kB\nMemFree:         1000000 kB\nMemAvailable:    8192000 kB\n"
	path := writeFile(t, dir, "meminfo", content)

	st := store.New()
	s := &MemSampler{Path: path}
	if err := s.Sample(st); err != nil {
		t.Fatalf("Sample: %v", err)
	}

	raw, ok := st.LookupBucket("meminfo")
	if !ok {
		t.Fatalf("expected meminfo bucket")
	}
	total, _ := raw.LookupRB("MemTotal")
	if total.Top().FloatValue() != 16384000 {
		t.Fatalf("expected MemTotal=16384000, got %v", total.Top().FloatValue())
	}
	avail, _ := raw.LookupRB("MemAvailable")
	if avail.Top().FloatValue() != 8192000 {
		t.Fatalf("expected MemAvailable=8192000, got %v", avail.Top().FloatValue())
	}
}

func TestFlatChildKeysReflectsBucketContents(t *testing.T) {
	st := store.New()
	st.Bucket("stat/cpu").Child("cpu0")
	st.Bucket("stat/cpu").Child("cpu1")

	keys := FlatChildKeys("stat/cpu")(st, nil)
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}
