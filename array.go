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
	"reflect"
)

// Arrays are typed Go slices of the descriptor's Go type. A nil slice is
// the absent array; a non-nil empty slice is a present, empty array. The
// two states are distinct everywhere the engine touches them.

// NewArray allocates an initialized []T of the given length and returns it
// as an interface value. A negative length yields the absent (nil) array
// without allocating.
func (t *DataType) NewArray(length int32) (interface{}, error) {
	sliceType := reflect.SliceOf(t.goType)
	if length < 0 {
		return reflect.Zero(sliceType).Interface(), nil
	}
	size := int64(length) * int64(t.MemSize)
	if size > t.registry.maxArrayBytes {
		return nil, StatusBadOutOfRange
	}
	if err := t.registry.allocBytes(size); err != nil {
		return nil, err
	}
	s := reflect.MakeSlice(sliceType, int(length), int(length))
	if !t.FixedSize {
		for i := 0; i < s.Len(); i++ {
			t.initValue(s.Index(i))
		}
	}
	t.registry.metrics.BuffersAllocated.Add(1)
	t.registry.metrics.BytesAllocated.Add(size)
	return s.Interface(), nil
}

// CopyArray deep-copies src ([]T) into *dst (*[]T). Absence is preserved:
// a nil src leaves *dst nil. On failure *dst is nil and every element
// allocated by the failed copy has been released.
func (t *DataType) CopyArray(dst, src interface{}) error {
	dv, err := t.slicePtr(dst)
	if err != nil {
		return err
	}
	sv, err := t.sliceValue(src)
	if err != nil {
		return err
	}
	if err := t.registry.copySlice(t, dv, sv); err != nil {
		t.registry.metrics.CopyRollbacks.Add(1)
		return err
	}
	return nil
}

// ClearArray releases the array behind *dst (*[]T), element buffers
// included, and sets it to the absent array.
func (t *DataType) ClearArray(dst interface{}) error {
	dv, err := t.slicePtr(dst)
	if err != nil {
		return err
	}
	t.registry.clearSlice(t, dv)
	return nil
}

func (t *DataType) slicePtr(p interface{}) (reflect.Value, error) {
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, StatusBadInvalidArgument
	}
	sv := rv.Elem()
	if sv.Kind() != reflect.Slice || sv.Type().Elem() != t.goType {
		return reflect.Value{}, StatusBadTypeMismatch
	}
	return sv, nil
}

func (t *DataType) sliceValue(p interface{}) (reflect.Value, error) {
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Slice {
		return reflect.Value{}, StatusBadInvalidArgument
	}
	if rv.Type().Elem() != t.goType {
		return reflect.Value{}, StatusBadTypeMismatch
	}
	return rv, nil
}

// copySlice copies a whole slice into the addressable slice value dst.
// mt is the element descriptor, nil for inline elements copied raw. When
// element k fails, elements [0,k) are cleared, the backing buffer is
// uncounted and dst is left absent.
func (r *Registry) copySlice(mt *DataType, dst, src reflect.Value) error {
	if src.IsNil() {
		dst.SetZero()
		return nil
	}
	n := src.Len()
	elemSize := int64(dst.Type().Elem().Size())
	size := int64(n) * elemSize
	if size > r.maxArrayBytes {
		return StatusBadOutOfRange
	}
	if err := r.allocBytes(size); err != nil {
		return err
	}
	buf := reflect.MakeSlice(dst.Type(), n, n)
	r.metrics.BuffersAllocated.Add(1)
	r.metrics.BytesAllocated.Add(size)

	if mt == nil || mt.FixedSize {
		reflect.Copy(buf, src)
		dst.Set(buf)
		return nil
	}
	for i := 0; i < n; i++ {
		e := buf.Index(i)
		mt.initValue(e)
		if err := mt.copyValue(e, src.Index(i)); err != nil {
			for j := i - 1; j >= 0; j-- {
				mt.clearValue(buf.Index(j))
			}
			r.metrics.BuffersReleased.Add(1)
			r.metrics.BytesReleased.Add(size)
			dst.SetZero()
			return err
		}
	}
	dst.Set(buf)
	return nil
}

// clearSlice releases an addressable slice value in place.
func (r *Registry) clearSlice(mt *DataType, v reflect.Value) {
	if v.IsNil() {
		return
	}
	if mt != nil && !mt.FixedSize {
		for i := 0; i < v.Len(); i++ {
			mt.clearValue(v.Index(i))
		}
	}
	r.metrics.BuffersReleased.Add(1)
	r.metrics.BytesReleased.Add(int64(v.Len()) * int64(v.Type().Elem().Size()))
	v.SetZero()
}

// accountSlice credits an adopted slice and its element buffers.
func (r *Registry) accountSlice(mt *DataType, v reflect.Value) {
	if v.IsNil() {
		return
	}
	r.metrics.BuffersAllocated.Add(1)
	r.metrics.BytesAllocated.Add(int64(v.Len()) * int64(v.Type().Elem().Size()))
	if mt != nil && !mt.FixedSize {
		for i := 0; i < v.Len(); i++ {
			mt.accountValue(v.Index(i))
		}
	}
}
