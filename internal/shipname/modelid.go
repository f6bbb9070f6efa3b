package shipname

import (
	"cmp"
	"fmt"
)

// ModelID identifies one model: its generation and its name.
type ModelID struct {
	Generation int
	Name       string
}

// ParseModelID parses a model file name (directory and extension are ignored) into a ModelID.
func ParseModelID(filename string) (ModelID, error) {
	num, err := DetectModelNum(filename)
	if err != nil {
		return ModelID{}, err
	}
	name, err := DetectModelName(filename)
	if err != nil {
		return ModelID{}, err
	}
	return ModelID{Generation: num, Name: name}, nil
}

// String returns the serialized identifier, e.g. "000017-brave-frigate-042".
func (id ModelID) String() string {
	return fmt.Sprintf("%06d-%s", id.Generation, id.Name)
}

// Compare orders identifiers by generation, and ties by their serialized form.
// It returns -1, 0 or +1, as cmp.Compare.
func (id ModelID) Compare(other ModelID) int {
	if c := cmp.Compare(id.Generation, other.Generation); c != 0 {
		return c
	}
	return cmp.Compare(id.String(), other.String())
}
