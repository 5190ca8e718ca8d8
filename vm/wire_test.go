package vm

import "testing"

func TestWire_RoundTrip(t *testing.T) {
	vm := NewVM()
	v, err := vm.EvalAll(`[nil, true, -3, 2.5, 'text', #{'k' -> [1, 2]}]`)
	if err != nil {
		t.Fatal(err)
	}
	data, err := vm.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	back, err := vm.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := vm.Describe(back), vm.Describe(v); got != want {
		t.Errorf("round trip = %s, want %s", got, want)
	}
}

func TestWire_Canonical(t *testing.T) {
	vm := NewVM()
	a, _ := vm.Marshal(vm.NewString("x"))
	b, _ := vm.Marshal(vm.NewString("x"))
	if string(a) != string(b) {
		t.Error("encoding is not deterministic")
	}
}

func TestWire_Instance(t *testing.T) {
	vm := NewVM()
	if _, err := vm.EvalAll(pointSrc); err != nil {
		t.Fatal(err)
	}
	p, err := vm.EvalAll("Point x: 3 y: 4")
	if err != nil {
		t.Fatal(err)
	}
	data, err := vm.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	back, err := vm.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := vm.Send(back, "sum", nil)
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, sum, 7)

	other := NewVM()
	if _, err := other.Unmarshal(data); err == nil {
		t.Error("decoding an instance of an unknown class succeeded")
	}
}

func TestWire_Unencodable(t *testing.T) {
	vm := NewVM()
	blk, err := vm.EvalAll("{ 1 }")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := vm.Marshal(blk); err == nil {
		t.Error("encoding a block succeeded")
	}

	cyclic, err := vm.EvalAll("let a = [1]. a push: a. a")
	if err != nil {
		t.Fatal(err)
	}
	_, err = vm.Marshal(cyclic)
	if err == nil {
		t.Fatal("encoding a cycle succeeded")
	}
	wantMessage(t, asUnwind(err), "cyclic")
}

func TestWire_SharedButAcyclic(t *testing.T) {
	vm := NewVM()
	v, err := vm.EvalAll("let s = [1]. [s, s]")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := vm.Marshal(v); err != nil {
		t.Errorf("shared substructure rejected: %v", err)
	}
}

func TestSystemSaveLoad(t *testing.T) {
	vm := NewVM()
	vm.Define("path", vm.NewString(t.TempDir()+"/snap.cbor"))
	v, err := vm.EvalAll(`
System save: #{'n' -> 1, 'xs' -> ['a']} to: path.
(System load: path) at: 'xs'`)
	if err != nil {
		t.Fatal(err)
	}
	wantDescribe(t, v, "['a']")
}

func TestWire_Corrupt(t *testing.T) {
	vm := NewVM()
	if _, err := vm.Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("decoding garbage succeeded")
	}
}
