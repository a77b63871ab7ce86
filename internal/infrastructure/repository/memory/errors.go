package memory

import "github.com/cockroachdb/errors"

func errNotFound(kind, id string) error {
	return errors.Newf("memory: %s %q not found", kind, id)
}
