// Package artifact decodes exported model artifacts into Go objects.
//
// An artifact is a JSON document tagged with a format version and a type:
//
//	{"format":"scorecast/v1","type":"tree_ensemble", ...}
//
// The "object" type is a class-reference envelope. Its "class" is looked up
// in the decoder's type table and the registered factory rebuilds the object
// from "state". An unregistered class fails the decode.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/okian/scorecast/internal/domain/model"
)

// Format is the only artifact format version this build reads.
const Format = "scorecast/v1"

// Artifact types.
const (
	KindTreeEnsemble = "tree_ensemble"
	KindLinear       = "linear"
	KindEncoder      = "encoder"
	KindObject       = "object"
)

const maxDepth = 8

// Factory rebuilds a registered class from its state. Nested artifacts in
// the state are decoded with d.
type Factory func(d *Decoder, state json.RawMessage) (any, error)

// Decoder turns artifact bytes into objects. It is safe for concurrent use.
type Decoder struct {
	mu    sync.RWMutex
	types map[string]Factory
	depth int
}

// NewDecoder returns a decoder with an empty type table.
func NewDecoder() *Decoder {
	return &Decoder{types: make(map[string]Factory)}
}

// RegisterType binds class to f. A later registration replaces an earlier one.
func (d *Decoder) RegisterType(class string, f Factory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.types[class] = f
}

// Registered reports whether class resolves.
func (d *Decoder) Registered(class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.types[class]
	return ok
}

type header struct {
	Format string `json:"format"`
	Type   string `json:"type"`
}

// Decode reads a top-level artifact. The format field is required.
func (d *Decoder) Decode(data []byte) (any, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if h.Format != Format {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, h.Format)
	}
	return d.decode(data, 0)
}

// DecodeNested reads an artifact embedded in an object's state. The format
// field may be omitted there.
func (d *Decoder) DecodeNested(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing nested artifact", ErrInvalidState)
	}
	return d.decode(raw, d.depth+1)
}

func (d *Decoder) decode(data []byte, depth int) (any, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if h.Format != "" && h.Format != Format {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, h.Format)
	}

	switch h.Type {
	case KindTreeEnsemble:
		var doc struct {
			header
			model.TreeEnsemble
		}
		if err := strict(data, &doc); err != nil {
			return nil, err
		}
		m := doc.TreeEnsemble
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case KindLinear:
		var doc struct {
			header
			model.Linear
		}
		if err := strict(data, &doc); err != nil {
			return nil, err
		}
		m := doc.Linear
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case KindEncoder:
		var doc struct {
			header
			model.OneHotEncoder
		}
		if err := strict(data, &doc); err != nil {
			return nil, err
		}
		m := doc.OneHotEncoder
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case KindObject:
		return d.decodeObject(data, depth)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, h.Type)
	}
}

func (d *Decoder) decodeObject(data []byte, depth int) (any, error) {
	var doc struct {
		header
		Class string          `json:"class"`
		State json.RawMessage `json:"state"`
	}
	if err := strict(data, &doc); err != nil {
		return nil, err
	}

	d.mu.RLock()
	f, ok := d.types[doc.Class]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedClass, doc.Class)
	}

	child := &Decoder{types: d.snapshot(), depth: depth}
	obj, err := f(child, doc.State)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Class, err)
	}
	return obj, nil
}

func (d *Decoder) snapshot() map[string]Factory {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]Factory, len(d.types))
	for k, v := range d.types {
		out[k] = v
	}
	return out
}

func strict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}
