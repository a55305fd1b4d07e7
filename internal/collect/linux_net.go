package collect

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// netDevColumns is /proc/net/dev's per-interface column order after
// the "iface:" label: the receive columns, then the transmit columns.
// Index positions below match /proc/net/dev's documented layout.
const (
	netColRxBytes = 0
	netColRxDrop  = 3
	netColTxBytes = 8
	netColTxDrop  = 11
)

// NetSampler reads /proc/net/dev into store bucket "net/dev", one
// child bucket per interface name.
type NetSampler struct {
	Path string
}

func (n *NetSampler) Sample(st *store.Store) error {
	f, err := os.Open(n.Path)
	if err != nil {
		return fmt.Errorf("collect: open %s: %w", n.Path, err)
	}
	defer f.Close()

	dst := st.Bucket("net/dev")
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue // two header lines
		}
		line := strings.TrimSpace(sc.Text())
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		fields := strings.Fields(line[idx+1:])
		if len(fields) < netColTxDrop+1 {
			continue
		}
		ifc := dst.Child(name)
		writeIntField(ifc, "rx_bytes", fields[netColRxBytes])
		writeIntField(ifc, "rx_drop", fields[netColRxDrop])
		writeIntField(ifc, "tx_bytes", fields[netColTxBytes])
		writeIntField(ifc, "tx_drop", fields[netColTxDrop])
	}
	return sc.Err()
}

func writeIntField(b *store.Bucket, name, raw string) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	b.RB(name, ringbuffer.KindInt).Append(v)
}
