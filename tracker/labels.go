package tracker

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// TypeLabels maps object types to the class names the detection model was
// trained on.  The zero based line index in the source file becomes the
// ObjectType value.
type TypeLabels struct {
	names []string
	types map[string]ObjectType
}

// LoadTypeLabels reads the class names from the given text file.  It should
// contain one label per line.
func LoadTypeLabels(file string) (*TypeLabels, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, errors.Wrap(err, "error opening labels file")
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var names []string

	for scanner.Scan() {
		names = append(names, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading labels file")
	}

	return NewTypeLabels(names), nil
}

// NewTypeLabels builds a label table from an ordered list of class names
func NewTypeLabels(names []string) *TypeLabels {

	tl := &TypeLabels{
		names: names,
		types: make(map[string]ObjectType, len(names)),
	}

	for i, name := range names {
		if _, ok := tl.types[name]; !ok {
			tl.types[name] = ObjectType(i)
		}
	}

	return tl
}

// Name returns the class name registered for t, or "unknown" when t is out
// of range
func (tl *TypeLabels) Name(t ObjectType) string {
	if t < 0 || int(t) >= len(tl.names) {
		return "unknown"
	}
	return tl.names[t]
}

// Type returns the object type registered for name, or TypeUnknown
func (tl *TypeLabels) Type(name string) ObjectType {
	if t, ok := tl.types[name]; ok {
		return t
	}
	return TypeUnknown
}
