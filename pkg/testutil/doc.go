// Package testutil provides utilities for testing winbackup components.
//
// Key components:
//   - File and directory builders (CreateFile, CreateDir, CreateTree)
//   - Symlink helpers used to stand in for reparse points on non-Windows hosts
//   - Existence assertions for backup destinations
//
// Usage guidelines:
//   - Pure logic (selection, rendering) should prefer filesystem.NewMemory
//   - Reparse point and permission behaviour needs the real filesystem
//   - All test data should be defined inline, not in external files
package testutil
