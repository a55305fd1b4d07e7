// Package metricpath centralizes the one bucket-layout convention
// under store.MetricsRoot that internal/graph (pre-allocating RBs),
// internal/rules (resolving identifiers) and internal/metricupdate
// (writing normalized samples) all need to agree on (spec.md §4.2/
// §4.5/§4.7): VM/KB-hosted subservices nest under their hosting
// instance first, then by path, then (for per-instance subservices)
// by the node's own instance name.
package metricpath

import "github.com/edeline-labs/assurance-agent/internal/store"

// HostPrefix returns "/node/vm", "/node/kb", or "" for the subservice
// path, matching the VM/KB hosting convention used by the rule
// compiler's prefix detection.
func HostPrefix(path string) string {
	switch {
	case len(path) >= len("/node/vm") && path[:len("/node/vm")] == "/node/vm":
		return "/node/vm"
	case len(path) >= len("/node/kb") && path[:len("/node/kb")] == "/node/kb":
		return "/node/kb"
	default:
		return ""
	}
}

// Bucket resolves the store.Bucket a node's metric RBs for path live
// under: metrics[/hostPrefix/hostInstance]/path[/instanceName].
func Bucket(st *store.Store, path, hostInstance, instanceName string) *store.Bucket {
	base := st.Bucket(store.MetricsRoot)
	if prefix := HostPrefix(path); prefix != "" {
		base = base.Child(prefix).Child(hostInstance)
	}
	base = base.Child(path)
	if instanceName != "" {
		base = base.Child(instanceName)
	}
	return base
}
