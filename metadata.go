package bequest

import "github.com/iov-one/bequest/errors"

// Metadata is embedded in every persisted model. Schema is the version of
// the model layout that was used to write it.
type Metadata struct {
	Schema uint32 `json:"schema"`
}

// Validate returns an error if the metadata does not declare a schema.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrEmpty, "metadata")
	}
	if m.Schema == 0 {
		return errors.Wrap(errors.ErrModel, "schema is required")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when implementing
// orm.CloneableData interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}
