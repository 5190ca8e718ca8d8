package vm

import "sort"

// VTable is the dispatch table of a class or interface: selector to method
// and slot name to slot. VTables are the only notion of type in the
// runtime and are compared by identity.
type VTable struct {
	name       string
	class      *Class
	methods    map[string]Method
	universal  map[string]bool // selectors still bound to the shared default
	slots      map[string]Slot
	slotNames  []string
	interfaces []string

	isInterface bool
	matchesAll  bool // the Object interface
}

// Slot is a positional instance variable with an optional declared type.
type Slot struct {
	Index int
	Type  *VTable
}

// NewVTable creates a dispatch table preloaded with the universal methods.
func NewVTable(name string) *VTable {
	vt := &VTable{
		name:      name,
		methods:   make(map[string]Method, len(universalMethods)),
		universal: make(map[string]bool, len(universalMethods)),
		slots:     make(map[string]Slot),
	}
	for sel, m := range universalMethods {
		vt.methods[sel] = m
		vt.universal[sel] = true
	}
	return vt
}

// Name returns the display name.
func (vt *VTable) Name() string { return vt.name }

// Class returns the class this table belongs to.
func (vt *VTable) Class() *Class { return vt.class }

// IsInterface reports whether the table belongs to an interface.
func (vt *VTable) IsInterface() bool { return vt.isInterface }

// Lookup finds a method by selector. Returns nil if none is found.
func (vt *VTable) Lookup(selector string) Method {
	return vt.methods[selector]
}

// HasMethod reports whether selector is understood.
func (vt *VTable) HasMethod(selector string) bool {
	_, ok := vt.methods[selector]
	return ok
}

// Defines reports whether selector is bound to something other than the
// shared universal default.
func (vt *VTable) Defines(selector string) bool {
	return vt.HasMethod(selector) && !vt.universal[selector]
}

// AddMethod adds or replaces a method.
func (vt *VTable) AddMethod(selector string, m Method) {
	vt.methods[selector] = m
	delete(vt.universal, selector)
}

// RemoveMethod removes a method.
func (vt *VTable) RemoveMethod(selector string) {
	delete(vt.methods, selector)
	delete(vt.universal, selector)
}

// Selectors returns the selectors this table defines itself, sorted.
func (vt *VTable) Selectors() []string {
	out := make([]string, 0, len(vt.methods))
	for sel := range vt.methods {
		if !vt.universal[sel] {
			out = append(out, sel)
		}
	}
	sort.Strings(out)
	return out
}

// AllSelectors returns every understood selector, sorted.
func (vt *VTable) AllSelectors() []string {
	out := make([]string, 0, len(vt.methods))
	for sel := range vt.methods {
		out = append(out, sel)
	}
	sort.Strings(out)
	return out
}

// AddSlot appends a slot. Indices are assigned in declaration order.
func (vt *VTable) AddSlot(name string, typ *VTable) Slot {
	s := Slot{Index: len(vt.slotNames), Type: typ}
	vt.slots[name] = s
	vt.slotNames = append(vt.slotNames, name)
	return s
}

// Slot looks up a slot by name.
func (vt *VTable) Slot(name string) (Slot, bool) {
	s, ok := vt.slots[name]
	return s, ok
}

// SlotNames returns slot names in index order.
func (vt *VTable) SlotNames() []string {
	return append([]string(nil), vt.slotNames...)
}

// NumSlots returns the slot count.
func (vt *VTable) NumSlots() int { return len(vt.slotNames) }

// Interfaces returns the declared interface names.
func (vt *VTable) Interfaces() []string {
	return append([]string(nil), vt.interfaces...)
}

// Implements reports whether the interface name has been declared.
func (vt *VTable) Implements(name string) bool {
	for _, n := range vt.interfaces {
		if n == name {
			return true
		}
	}
	return false
}

func (vt *VTable) addInterface(name string) {
	if !vt.Implements(name) {
		vt.interfaces = append(vt.interfaces, name)
	}
}

// conforms is the type check for bindings, slots, parameters and return
// values: the object's table is the expected one, or the expected table is
// an interface the object's table declares.
func conforms(o Object, expected *VTable) bool {
	if expected == nil || o.vt == expected {
		return true
	}
	if !expected.isInterface {
		return false
	}
	return expected.matchesAll || o.vt.Implements(expected.name)
}
