package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Wire format: CBOR snapshots of plain data
//
// Scalars, strings, arrays, dictionaries and instances of top-level classes
// round-trip. Closures, classes and resources do not, nor do cycles.
// ---------------------------------------------------------------------------

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireKind uint8

const (
	wireNil wireKind = iota
	wireBool
	wireInt
	wireFloat
	wireString
	wireArray
	wireDict
	wireInstance
)

type wireValue struct {
	Kind   wireKind    `cbor:"1,keyasint"`
	Bool   bool        `cbor:"2,keyasint,omitempty"`
	Int    int64       `cbor:"3,keyasint,omitempty"`
	Float  float64     `cbor:"4,keyasint,omitempty"`
	String string      `cbor:"5,keyasint,omitempty"`
	Items  []wireValue `cbor:"6,keyasint,omitempty"`
	Values []wireValue `cbor:"7,keyasint,omitempty"` // dictionary values, parallel to Items
	Class  string      `cbor:"8,keyasint,omitempty"`
}

// Marshal encodes o in canonical CBOR.
func (vm *VM) Marshal(o Object) ([]byte, error) {
	w, err := vm.toWire(o, make(map[any]bool))
	if err != nil {
		return nil, err
	}
	data, err := cborEncMode.Marshal(w)
	if err != nil {
		return nil, errorf("Cannot encode %s: %v", vm.Describe(o), err)
	}
	return data, nil
}

// Unmarshal decodes data produced by Marshal. Instances are rebuilt from
// the class of the same name visible at top level.
func (vm *VM) Unmarshal(data []byte) (Object, error) {
	var w wireValue
	if err := cbor.Unmarshal(data, &w); err != nil {
		return Object{}, errorf("Cannot decode snapshot: %v", err)
	}
	return vm.fromWire(w)
}

func (vm *VM) toWire(o Object, seen map[any]bool) (wireValue, error) {
	switch v := o.data.(type) {
	case nil:
		return wireValue{Kind: wireNil}, nil
	case bool:
		return wireValue{Kind: wireBool, Bool: v}, nil
	case int64:
		return wireValue{Kind: wireInt, Int: v}, nil
	case float64:
		return wireValue{Kind: wireFloat, Float: v}, nil
	case *String:
		return wireValue{Kind: wireString, String: v.Get()}, nil
	}

	if seen[o.data] {
		return wireValue{}, errorf("Cannot encode a cyclic structure")
	}
	seen[o.data] = true
	defer delete(seen, o.data)

	switch v := o.data.(type) {
	case *Array:
		items, err := vm.toWireAll(v.Snapshot(), seen)
		return wireValue{Kind: wireArray, Items: items}, err
	case *Dictionary:
		keys, values := v.entries()
		k, err := vm.toWireAll(keys, seen)
		if err != nil {
			return wireValue{}, err
		}
		vals, err := vm.toWireAll(values, seen)
		return wireValue{Kind: wireDict, Items: k, Values: vals}, err
	case *Instance:
		var slots []Object
		v.View(func(s []Object) { slots = append([]Object(nil), s...) })
		items, err := vm.toWireAll(slots, seen)
		return wireValue{Kind: wireInstance, Class: o.vt.Name(), Items: items}, err
	}
	return wireValue{}, errorf("Cannot encode %s", vm.Describe(o))
}

func (vm *VM) toWireAll(objs []Object, seen map[any]bool) ([]wireValue, error) {
	out := make([]wireValue, len(objs))
	for i, o := range objs {
		w, err := vm.toWire(o, seen)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func (vm *VM) fromWire(w wireValue) (Object, error) {
	switch w.Kind {
	case wireNil:
		return vm.Nil(), nil
	case wireBool:
		return vm.Bool(w.Bool), nil
	case wireInt:
		return vm.Int(w.Int), nil
	case wireFloat:
		return vm.Float(w.Float), nil
	case wireString:
		return vm.NewString(w.String), nil
	case wireArray:
		items, err := vm.fromWireAll(w.Items)
		if err != nil {
			return Object{}, err
		}
		return vm.NewArray(items), nil
	case wireDict:
		if len(w.Items) != len(w.Values) {
			return Object{}, errorf("Cannot decode snapshot: malformed dictionary")
		}
		keys, err := vm.fromWireAll(w.Items)
		if err != nil {
			return Object{}, err
		}
		values, err := vm.fromWireAll(w.Values)
		if err != nil {
			return Object{}, err
		}
		d := vm.NewDictionary()
		for i := range keys {
			d.DictionaryData().Put(keys[i], values[i])
		}
		return d, nil
	case wireInstance:
		c, ok := vm.LookupClass(w.Class)
		if !ok {
			return Object{}, errorf("Cannot decode snapshot: unknown class %s", w.Class)
		}
		slots, err := vm.fromWireAll(w.Items)
		if err != nil {
			return Object{}, err
		}
		return vm.Instantiate(c, slots)
	}
	return Object{}, errorf("Cannot decode snapshot: unknown kind %d", w.Kind)
}

func (vm *VM) fromWireAll(ws []wireValue) ([]Object, error) {
	out := make([]Object, len(ws))
	for i, w := range ws {
		o, err := vm.fromWire(w)
		if err != nil {
			return nil, err
		}
		out[i] = o
	}
	return out, nil
}
