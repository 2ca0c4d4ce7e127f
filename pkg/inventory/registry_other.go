//go:build !windows

package inventory

import "fmt"

type registryCatalog struct{}

// NewRegistryCatalog returns the system catalog. Outside Windows there is
// no registry and every root is absent.
func NewRegistryCatalog() Catalog {
	return registryCatalog{}
}

func (registryCatalog) OpenRoot(root Root) (Key, error) {
	return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
}
