//go:build windows

package inventory

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// Longest registry key name plus terminator
const maxKeyNameLen = 256

type registryCatalog struct{}

// NewRegistryCatalog returns a catalog over the Windows registry, opened
// read-only.
func NewRegistryCatalog() Catalog {
	return registryCatalog{}
}

func (registryCatalog) OpenRoot(root Root) (Key, error) {
	var hive registry.Key
	switch root.Scope {
	case ScopeMachine:
		hive = registry.LOCAL_MACHINE
	case ScopeUser:
		hive = registry.CURRENT_USER
	default:
		return nil, fmt.Errorf("unknown scope %q: %w", root.Scope, ErrRootNotFound)
	}

	k, err := registry.OpenKey(hive, root.Path, registry.READ)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", root, err)
	}
	return registryKey{k}, nil
}

type registryKey struct {
	k registry.Key
}

// SubKeyName enumerates one index at a time so a failure mid-listing ends
// the sequence instead of discarding what was read.
func (r registryKey) SubKeyName(index int) (string, error) {
	buf := make([]uint16, maxKeyNameLen)
	n := uint32(len(buf))
	if err := windows.RegEnumKeyEx(windows.Handle(r.k), uint32(index), &buf[0], &n, nil, nil, nil, nil); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf[:n]), nil
}

func (r registryKey) OpenSubKey(name string) (Key, error) {
	k, err := registry.OpenKey(r.k, name, registry.READ)
	if err != nil {
		return nil, err
	}
	return registryKey{k}, nil
}

func (r registryKey) StringValue(name string) (string, error) {
	v, _, err := r.k.GetStringValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", ErrValueNotFound
		}
		return "", err
	}
	return v, nil
}

func (r registryKey) Close() error {
	return r.k.Close()
}
