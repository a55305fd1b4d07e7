package collect

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/edeline-labs/assurance-agent/internal/store"
)

// diskstatsColumns is /proc/diskstats' field order starting after
// major/minor/device-name: reads completed, reads merged, sectors
// read, ms reading, writes completed, writes merged, sectors written,
// ms writing, ios in progress, ms doing io, weighted ms doing io.
const (
	diskColReadSectors  = 2
	diskColWriteSectors = 6
	diskColIOTicks      = 9
)

// DiskSampler reads /proc/diskstats into store bucket "diskstats", one
// child bucket per whole-disk device (partitions, whose names end in
// a digit, are skipped — matching the original's "last char is a
// digit" partition filter).
type DiskSampler struct {
	Path string
}

func (d *DiskSampler) Sample(st *store.Store) error {
	f, err := os.Open(d.Path)
	if err != nil {
		return fmt.Errorf("collect: open %s: %w", d.Path, err)
	}
	defer f.Close()

	dst := st.Bucket("diskstats")
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3+diskColIOTicks+1 {
			continue
		}
		name := fields[2]
		if last := rune(name[len(name)-1]); unicode.IsDigit(last) {
			continue
		}
		rest := fields[3:]
		dev := dst.Child(name)
		writeIntField(dev, "read_sectors", rest[diskColReadSectors])
		writeIntField(dev, "write_sectors", rest[diskColWriteSectors])
		writeIntField(dev, "io_ticks", rest[diskColIOTicks])
	}
	return sc.Err()
}
