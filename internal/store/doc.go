// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. Both the postgres and sqlite platform
// packages implement them, so services remain independent of the
// configured database driver.
package store
