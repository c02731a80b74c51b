// Package types defines the upstream wire types shared by the server
// packages: the qubic.li score snapshot, the qbm history series points and
// price quotes. Field names and JSON tags follow the upstream payloads so the
// structs decode them without translation.
package types
