package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// Registry maps class names to dense integer ids in first-seen order.
//
// A Registry is immutable: With returns an updated copy and leaves the
// receiver untouched. The zero value is an empty registry.
type Registry struct {
	names []string
	ids   map[string]int
}

// With returns a registry containing name and the id assigned to it. A
// name already present keeps its id and the receiver is returned as is.
func (r Registry) With(name string) (Registry, int) {
	if id, ok := r.ids[name]; ok {
		return r, id
	}
	id := len(r.names)
	ids := make(map[string]int, id+1)
	maps.Copy(ids, r.ids)
	ids[name] = id
	return Registry{
		names: append(slices.Clip(r.names), name),
		ids:   ids,
	}, id
}

// ID returns the id of name.
func (r Registry) ID(name string) (int, bool) {
	id, ok := r.ids[name]
	return id, ok
}

// Name returns the class name with the given id.
func (r Registry) Name(id int) (string, bool) {
	if id < 0 || id >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

// Len returns the number of classes.
func (r Registry) Len() int { return len(r.names) }

// Names returns the class names in id order.
func (r Registry) Names() []string { return slices.Clone(r.names) }

// Map returns the mapping as a plain map.
func (r Registry) Map() map[string]int { return maps.Clone(r.ids) }

// RegistryFromMap rebuilds a registry from a decoded name -> id mapping.
// Ids must be exactly 0..len(m)-1.
func RegistryFromMap(m map[string]int) (Registry, error) {
	names := make([]string, len(m))
	seen := make([]bool, len(m))
	for name, id := range m {
		if id < 0 || id >= len(m) || seen[id] {
			return Registry{}, fmt.Errorf("dataset: class ids are not dense: %q has id %d", name, id)
		}
		seen[id] = true
		names[id] = name
	}
	return Registry{names: names, ids: maps.Clone(m)}, nil
}

// EncodeMsgpack writes the registry as a msgpack map in id order.
func (r Registry) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(r.names)); err != nil {
		return err
	}
	for id, name := range r.names {
		if err := enc.EncodeString(name); err != nil {
			return err
		}
		if err := enc.EncodeInt(int64(id)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) DecodeMsgpack(dec *msgpack.Decoder) error {
	var m map[string]int
	if err := dec.Decode(&m); err != nil {
		return err
	}
	return r.fromMap(m)
}

// MarshalJSON writes a JSON object whose keys appear in id order.
func (r Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for id, name := range r.names {
		if id > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		fmt.Fprintf(&buf, ":%d", id)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Registry) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	return r.fromMap(m)
}

// MarshalYAML renders the registry as an id-ordered YAML mapping.
func (r Registry) MarshalYAML() (any, error) {
	ms := make(yaml.MapSlice, len(r.names))
	for id, name := range r.names {
		ms[id] = yaml.MapItem{Key: name, Value: id}
	}
	return ms, nil
}

func (r *Registry) UnmarshalYAML(data []byte) error {
	var m map[string]int
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	return r.fromMap(m)
}

func (r *Registry) fromMap(m map[string]int) error {
	reg, err := RegistryFromMap(m)
	if err != nil {
		return err
	}
	*r = reg
	return nil
}
