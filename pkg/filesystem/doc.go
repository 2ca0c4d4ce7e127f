// Package filesystem provides filesystem implementations for winbackup.
//
// Core packages talk to the FS interface rather than to package os so that
// pure logic (selection, rendering) can be exercised against an in-memory
// afero filesystem, while behaviour that depends on the real platform
// (reparse points, permission bits) runs against the OS implementation.
package filesystem
