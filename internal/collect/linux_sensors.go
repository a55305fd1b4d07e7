package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// SensorSampler reads temperature readings from the Linux hwmon sysfs
// tree (Root, default "/sys/class/hwmon") into store bucket "sensors",
// one child bucket per "<chip>_tempN" label. Millidegree readings are
// converted to whole degrees Celsius.
type SensorSampler struct {
	Root string
}

func (s *SensorSampler) Sample(st *store.Store) error {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return fmt.Errorf("collect: read %s: %w", s.Root, err)
	}

	dst := st.Bucket("sensors")
	for _, e := range entries {
		chipDir := filepath.Join(s.Root, e.Name())
		name := chipName(chipDir)
		inputs, err := filepath.Glob(filepath.Join(chipDir, "temp*_input"))
		if err != nil {
			continue
		}
		for _, path := range inputs {
			raw, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
			if err != nil {
				continue
			}
			label := fmt.Sprintf("%s_%s", name, strings.TrimSuffix(filepath.Base(path), "_input"))
			dst.Child(label).RB("temp", ringbuffer.KindFloat).Append(milli / 1000)
		}
	}
	return nil
}

func chipName(chipDir string) string {
	raw, err := os.ReadFile(filepath.Join(chipDir, "name"))
	if err != nil {
		return filepath.Base(chipDir)
	}
	return strings.TrimSpace(string(raw))
}
