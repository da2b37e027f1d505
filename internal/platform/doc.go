// Package platform provides the cross-platform filesystem primitives the
// generator relies on: durable atomic writes, advisory file locks and symlink
// aware path resolution. On Windows permission changes are skipped and locks
// use LockFileEx; elsewhere chmod and flock are used directly.
package platform
