package inventory

import (
	"errors"
	"fmt"
)

// MemoryKey is an in-memory catalog node. Children keep insertion order,
// which is the enumeration order.
type MemoryKey struct {
	Name     string
	Values   map[string]string
	Children []*MemoryKey

	// FailAt makes SubKeyName fail at this index and beyond when > 0
	FailAt int
	// Unopenable makes OpenSubKey fail for this node
	Unopenable bool
	// ReadErr is returned by StringValue when set
	ReadErr error
}

// Child appends a child with an optional DisplayName and returns it
func (k *MemoryKey) Child(name, displayName string) *MemoryKey {
	child := &MemoryKey{Name: name, Values: map[string]string{}}
	if displayName != "" {
		child.Values[DisplayNameValue] = displayName
	}
	k.Children = append(k.Children, child)
	return child
}

// SubKeyName implements Key
func (k *MemoryKey) SubKeyName(index int) (string, error) {
	if k.FailAt > 0 && index >= k.FailAt {
		return "", fmt.Errorf("enumeration failed at index %d", index)
	}
	if index < 0 || index >= len(k.Children) {
		return "", fmt.Errorf("no sub key at index %d", index)
	}
	return k.Children[index].Name, nil
}

// OpenSubKey implements Key
func (k *MemoryKey) OpenSubKey(name string) (Key, error) {
	for _, c := range k.Children {
		if c.Name != name {
			continue
		}
		if c.Unopenable {
			return nil, errors.New("access denied")
		}
		return c, nil
	}
	return nil, fmt.Errorf("sub key %q not found", name)
}

// StringValue implements Key
func (k *MemoryKey) StringValue(name string) (string, error) {
	if k.ReadErr != nil {
		return "", k.ReadErr
	}
	v, ok := k.Values[name]
	if !ok {
		return "", ErrValueNotFound
	}
	return v, nil
}

// Close implements Key
func (k *MemoryKey) Close() error { return nil }

// MemoryCatalog is a Catalog backed by MemoryKey trees
type MemoryCatalog struct {
	roots map[Root]*MemoryKey
}

// NewMemoryCatalog returns an empty catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{roots: map[Root]*MemoryKey{}}
}

// AddRoot registers an empty root and returns it for population
func (c *MemoryCatalog) AddRoot(root Root) *MemoryKey {
	key := &MemoryKey{Name: root.Path}
	c.roots[root] = key
	return key
}

// OpenRoot implements Catalog
func (c *MemoryCatalog) OpenRoot(root Root) (Key, error) {
	key, ok := c.roots[root]
	if !ok {
		return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
	}
	return key, nil
}
