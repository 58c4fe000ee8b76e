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
	"errors"
	"testing"
)

func TestNewArrayAbsentVersusEmpty(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	absent, err := it.NewArray(-1)
	if err != nil {
		t.Fatalf("NewArray(-1): %v", err)
	}
	if absent.([]int32) != nil {
		t.Fatal("negative length must yield the absent (nil) array")
	}

	empty, err := it.NewArray(0)
	if err != nil {
		t.Fatalf("NewArray(0): %v", err)
	}
	if empty.([]int32) == nil {
		t.Fatal("zero length must yield a present, non-nil array")
	}
	if len(empty.([]int32)) != 0 {
		t.Fatal("zero length array must be empty")
	}

	e := empty.([]int32)
	if err := it.ClearArray(&e); err != nil {
		t.Fatalf("ClearArray: %v", err)
	}
	checkBalanced(t, r)
}

func TestNewArrayElementsInitialized(t *testing.T) {
	r := NewRegistry()
	st := r.Builtin(TypeIndexString)

	a, err := st.NewArray(3)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	ss := a.([]String)
	for i, s := range ss {
		if !s.IsAbsent() {
			t.Errorf("element %d not absent: %+v", i, s)
		}
	}
	st.ClearArray(&ss)
	checkBalanced(t, r)
}

func TestNewArrayRespectsLimit(t *testing.T) {
	r := NewRegistry(WithMaxArrayBytes(16))
	it := r.Builtin(TypeIndexInt32)

	if _, err := it.NewArray(4); err != nil {
		t.Fatalf("4 elements fit in 16 bytes: %v", err)
	}
	if _, err := it.NewArray(5); !IsStatusCode(err, StatusBadOutOfRange) {
		t.Fatalf("oversized array error = %v, want BadOutOfRange", err)
	}
}

func TestCopyArrayPreservesAbsence(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	var dst []int32
	if err := it.CopyArray(&dst, []int32(nil)); err != nil {
		t.Fatalf("CopyArray(nil): %v", err)
	}
	if dst != nil {
		t.Fatal("copy of absent array must be absent")
	}

	if err := it.CopyArray(&dst, []int32{}); err != nil {
		t.Fatalf("CopyArray(empty): %v", err)
	}
	if dst == nil {
		t.Fatal("copy of empty array must be present")
	}
	it.ClearArray(&dst)
	checkBalanced(t, r)
}

func TestCopyArrayDeep(t *testing.T) {
	r := NewRegistry()
	st := r.Builtin(TypeIndexString)

	src := []String{StringFrom("a"), StringFrom("bb")}
	var dst []String
	if err := st.CopyArray(&dst, src); err != nil {
		t.Fatalf("CopyArray: %v", err)
	}
	if len(dst) != 2 || !dst[0].Equal(src[0]) || !dst[1].Equal(src[1]) {
		t.Fatalf("copy mismatch: %v", dst)
	}
	src[0].Data[0] = 'X'
	if dst[0].Data[0] == 'X' {
		t.Fatal("element buffers alias the source")
	}

	if err := st.ClearArray(&dst); err != nil {
		t.Fatalf("ClearArray: %v", err)
	}
	if dst != nil {
		t.Fatal("cleared array must be absent")
	}
	checkBalanced(t, r)
}

func TestCopyArrayElementRollback(t *testing.T) {
	var failAt, calls int
	r := NewRegistry(WithAllocGuard(func(int64) error {
		if failAt == 0 {
			return nil
		}
		calls++
		if calls >= failAt {
			return errors.New("budget exhausted")
		}
		return nil
	}))
	st := r.Builtin(TypeIndexString)

	src := []String{StringFrom("one"), StringFrom("two"), StringFrom("three")}
	var dst []String

	// Call 1 admits the slice buffer, call 2 the first element; fail on
	// the second element's buffer.
	failAt = 3
	err := st.CopyArray(&dst, src)
	failAt = 0

	if !IsStatusCode(err, StatusBadOutOfMemory) {
		t.Fatalf("CopyArray error = %v, want BadOutOfMemory", err)
	}
	if dst != nil {
		t.Fatal("failed copy must leave the destination absent")
	}
	if n := r.Metrics().CopyRollbacks.Value(); n != 1 {
		t.Fatalf("CopyRollbacks = %d, want 1", n)
	}
	checkBalanced(t, r)
}

func TestCopyArrayArgumentErrors(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	var wrong []int64
	if err := it.CopyArray(&wrong, []int32{1}); !IsStatusCode(err, StatusBadTypeMismatch) {
		t.Errorf("wrong element type: %v", err)
	}
	var dst []int32
	if err := it.CopyArray(&dst, nil); !IsStatusCode(err, StatusBadInvalidArgument) {
		t.Errorf("untyped nil source: %v", err)
	}
	if err := it.CopyArray(nil, []int32{1}); !IsStatusCode(err, StatusBadInvalidArgument) {
		t.Errorf("nil destination: %v", err)
	}
}

func TestClearArrayAbsentIsNoOp(t *testing.T) {
	r := NewRegistry()
	it := r.Builtin(TypeIndexInt32)

	var dst []int32
	if err := it.ClearArray(&dst); err != nil {
		t.Fatalf("ClearArray: %v", err)
	}
	if n := r.Metrics().BuffersReleased.Value(); n != 0 {
		t.Fatalf("absent clear released %d buffers", n)
	}
}
