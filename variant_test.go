// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uatypes

import (
	"testing"
)

type stubSource struct {
	value    float64
	reads    int
	releases int
	writes   int
	closes   int
	readErr  error
}

func (s *stubSource) Read() (VariantValue, error) {
	if s.readErr != nil {
		return VariantValue{}, s.readErr
	}
	s.reads++
	v := s.value
	return VariantValue{ArrayLength: -1, Value: &v}, nil
}

func (s *stubSource) Release(VariantValue) { s.releases++ }

func (s *stubSource) Write(val VariantValue) error {
	p, ok := val.Value.(*float64)
	if !ok {
		return StatusBadTypeMismatch
	}
	s.value = *p
	s.writes++
	return nil
}

func (s *stubSource) Close() error {
	s.closes++
	return nil
}

func TestVariantAdoptScalar(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	answer := int32(42)
	v := NewVariant()
	if err := v.SetValue(it, &answer); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if !v.IsScalar() || v.IsArray() || v.IsEmpty() {
		t.Fatalf("adopted scalar misclassified: %+v", v)
	}
	err := v.View(func(val VariantValue) error {
		if !val.IsScalar() {
			t.Fatal("snapshot must be scalar")
		}
		if got := *val.Value.(*int32); got != 42 {
			t.Fatalf("snapshot value = %d", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	v.Clear()
	if !v.IsEmpty() {
		t.Fatal("cleared variant must be empty")
	}
	if n := r.Metrics().ValuesAdopted.Value(); n != 1 {
		t.Fatalf("ValuesAdopted = %d, want 1", n)
	}
	checkBalanced(t, r)
}

func TestVariantAdoptArray(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	v := NewVariant()
	if err := v.SetArray(it, []int32{1, 2, 3}); err != nil {
		t.Fatalf("SetArray: %v", err)
	}
	if !v.IsArray() || v.ArrayLength != 3 {
		t.Fatalf("adopted array misclassified: %+v", v)
	}
	v.Clear()
	checkBalanced(t, r)
}

func TestVariantAdoptAbsentArray(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	v := NewVariant()
	if err := v.SetArray(it, []int32(nil)); err != nil {
		t.Fatalf("SetArray(nil): %v", err)
	}
	if v.IsEmpty() {
		t.Fatal("typed variant must not be empty")
	}
	if v.IsArray() {
		t.Fatal("absent array is not a present array")
	}
	v.Clear()
	checkBalanced(t, r)
}

func TestVariantBorrowedIsNotReleased(t *testing.T) {
	r := NewRegistry()
	st := r.Builtin(TypeIndexString)

	borrowed := StringFrom("borrowed")
	v := NewVariant()
	if err := v.SetValueNoDelete(st, &borrowed); err != nil {
		t.Fatalf("SetValueNoDelete: %v", err)
	}
	v.Clear()

	if !borrowed.Equal(StringFrom("borrowed")) {
		t.Fatal("Clear of a borrowed variant touched the payload")
	}
	if n := r.Metrics().BuffersReleased.Value(); n != 0 {
		t.Fatalf("borrowed clear released %d buffers", n)
	}
	checkBalanced(t, r)
}

func TestVariantBorrowedRejectsWrite(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	borrowed := int32(7)
	v := NewVariant()
	if err := v.SetValueNoDelete(it, &borrowed); err != nil {
		t.Fatalf("SetValueNoDelete: %v", err)
	}
	defer v.Clear()

	replacement := int32(8)
	err := v.Write(VariantValue{ArrayLength: -1, Value: &replacement})
	if !IsStatusCode(err, StatusBadInvalidState) {
		t.Fatalf("Write on borrowed data = %v, want BadInvalidState", err)
	}
	if borrowed != 7 {
		t.Fatal("rejected write mutated the borrowed payload")
	}
}

func TestVariantCopySetValue(t *testing.T) {
	r := NewRegistry()
	st := r.Builtin(TypeIndexString)

	template := StringFrom("template")
	v := NewVariant()
	if err := v.CopySetValue(st, &template); err != nil {
		t.Fatalf("CopySetValue: %v", err)
	}

	// The variant owns an independent copy.
	template.Data[0] = 'X'
	v.View(func(val VariantValue) error {
		if got := val.Value.(*String); !got.Equal(StringFrom("template")) {
			t.Fatalf("payload = %q", got)
		}
		return nil
	})

	v.Clear()
	checkBalanced(t, r)
}

func TestVariantCopySetArray(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	src := []int32{10, 20}
	v := NewVariant()
	if err := v.CopySetArray(it, src); err != nil {
		t.Fatalf("CopySetArray: %v", err)
	}
	src[0] = 99
	v.View(func(val VariantValue) error {
		got := val.Value.([]int32)
		if len(got) != 2 || got[0] != 10 || got[1] != 20 {
			t.Fatalf("payload = %v", got)
		}
		return nil
	})
	v.Clear()
	checkBalanced(t, r)
}

func TestVariantWriteReplacesOwnedPayload(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	a := int32(1)
	v := NewVariant()
	if err := v.SetValue(it, &a); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	b := int32(2)
	if err := v.Write(VariantValue{ArrayLength: -1, Value: &b}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	v.View(func(val VariantValue) error {
		if got := *val.Value.(*int32); got != 2 {
			t.Fatalf("payload after write = %d", got)
		}
		return nil
	})
	v.Clear()
	checkBalanced(t, r)
}

func TestVariantCopyInto(t *testing.T) {
	r := NewRegistry()
	st := r.Builtin(TypeIndexString)

	borrowed := StringFrom("shared")
	src := NewVariant()
	if err := src.SetValueNoDelete(st, &borrowed); err != nil {
		t.Fatalf("SetValueNoDelete: %v", err)
	}

	dst := NewVariant()
	if err := src.CopyInto(dst); err != nil {
		t.Fatalf("CopyInto: %v", err)
	}
	if dst.Storage != VariantData {
		t.Fatalf("copy storage = %v, want Data", dst.Storage)
	}
	if !src.Equal(dst) {
		t.Fatal("copy must compare equal to the source")
	}

	// The copy outlives the borrowed original.
	src.Clear()
	borrowed.Data[0] = 'X'
	dst.View(func(val VariantValue) error {
		if got := val.Value.(*String); !got.Equal(StringFrom("shared")) {
			t.Fatalf("payload = %q", got)
		}
		return nil
	})
	dst.Clear()
	checkBalanced(t, r)
}

func TestVariantDataSource(t *testing.T) {
	r := NewRegistry()
	dt := r.Builtin(TypeIndexDouble)

	src := &stubSource{value: 25.5}
	v := NewVariant()
	if err := v.SetDataSource(dt, src); err != nil {
		t.Fatalf("SetDataSource: %v", err)
	}

	err := v.View(func(val VariantValue) error {
		if got := *val.Value.(*float64); got != 25.5 {
			t.Fatalf("source value = %v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if src.reads != 1 || src.releases != 1 {
		t.Fatalf("reads=%d releases=%d, want 1/1", src.reads, src.releases)
	}

	// Release happens on the error path too.
	v.View(func(VariantValue) error { return StatusBadNoDataAvailable })
	if src.releases != 2 {
		t.Fatalf("releases = %d, want 2", src.releases)
	}

	next := 30.0
	if err := v.Write(VariantValue{ArrayLength: -1, Value: &next}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if src.writes != 1 || src.value != 30.0 {
		t.Fatalf("write not delegated: %+v", src)
	}

	// Copying a source-backed variant is a storage-mode misuse.
	other := NewVariant()
	if err := v.CopyInto(other); !IsStatusCode(err, StatusBadInvalidState) {
		t.Fatalf("CopyInto = %v, want BadInvalidState", err)
	}

	v.Clear()
	if src.closes != 1 {
		t.Fatalf("closes = %d, want 1", src.closes)
	}
	v.Clear()
	if src.closes != 1 {
		t.Fatal("second Clear must not close again")
	}
	checkBalanced(t, r)
}

func TestVariantViewReleasesOnPanic(t *testing.T) {
	r := NewRegistry()
	dt := r.Builtin(TypeIndexDouble)

	src := &stubSource{value: 1}
	v := NewVariant()
	if err := v.SetDataSource(dt, src); err != nil {
		t.Fatalf("SetDataSource: %v", err)
	}
	defer v.Clear()

	func() {
		defer func() { recover() }()
		v.View(func(VariantValue) error { panic("boom") })
	}()
	if src.releases != 1 {
		t.Fatalf("releases = %d, want 1 after panic", src.releases)
	}
}

func TestVariantEqual(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	a, b := int32(5), int32(5)
	va, vb := NewVariant(), NewVariant()
	va.SetValueNoDelete(it, &a)
	vb.SetValueNoDelete(it, &b)
	if !va.Equal(vb) {
		t.Fatal("equal scalars reported unequal")
	}

	c := int32(6)
	vc := NewVariant()
	vc.SetValueNoDelete(it, &c)
	if va.Equal(vc) {
		t.Fatal("different scalars reported equal")
	}

	empty1, empty2 := NewVariant(), NewVariant()
	if !empty1.Equal(empty2) {
		t.Fatal("two empty variants must be equal")
	}

	vs := NewVariant()
	vs.SetDataSource(r.Builtin(TypeIndexDouble), &stubSource{value: 5})
	defer vs.Clear()
	if va.Equal(vs) || vs.Equal(vs) {
		t.Fatal("source-backed variants never compare equal")
	}
}

func TestVariantEmptyView(t *testing.T) {
	v := NewVariant()
	err := v.View(func(VariantValue) error { return nil })
	if !IsStatusCode(err, StatusBadNoDataAvailable) {
		t.Fatalf("View on empty = %v, want BadNoDataAvailable", err)
	}
}
