// Package preflight runs environment checks surfaced by the status command:
// directory access for the queue database and logs, and reachability of the
// remote analysis endpoint.
package preflight
