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
	"log/slog"
	"reflect"
)

// VariantStorageType describes who owns the payload of a Variant.
type VariantStorageType uint8

// Variant storage modes.
const (
	// VariantData is an owned payload: Clear releases it.
	VariantData VariantStorageType = iota

	// VariantDataNoDelete is a borrowed payload: Clear drops the reference
	// and releases nothing. Writing through it is rejected.
	VariantDataNoDelete

	// VariantDataSource means the payload lives behind a DataSource and is
	// never resident; access it through View.
	VariantDataSource
)

// String returns the string representation of the storage mode.
func (s VariantStorageType) String() string {
	switch s {
	case VariantData:
		return "Data"
	case VariantDataNoDelete:
		return "DataNoDelete"
	case VariantDataSource:
		return "DataSource"
	default:
		return "Unknown"
	}
}

// VariantValue is a borrowed snapshot of a Variant payload: a *T scalar or
// a []T array, with the array length convention of the data model. An
// ArrayLength below zero with a non-nil Value is a scalar; at or above
// zero it is an array (zero being present and empty); below zero with a
// nil Value there is no payload.
type VariantValue struct {
	ArrayLength     int32
	Value           interface{}
	ArrayDimensions []int32
}

// IsScalar reports whether the snapshot carries a scalar.
func (v VariantValue) IsScalar() bool {
	return v.ArrayLength < 0 && v.Value != nil
}

// IsArray reports whether the snapshot carries a (possibly empty) array.
func (v VariantValue) IsArray() bool {
	return v.ArrayLength >= 0
}

// DataSource supplies a Variant payload on demand instead of keeping it
// resident. Read hands out a borrowed snapshot that stays valid until the
// matching Release; Write pushes a new value into the source; Close is
// called exactly once when the owning Variant is cleared.
//
// Sources that cannot be written should return StatusBadNotSupported from
// Write.
type DataSource interface {
	Read() (VariantValue, error)
	Release(VariantValue)
	Write(VariantValue) error
	Close() error
}

// Variant holds a value of any registered type in one of three storage
// modes. The zero Variant is not ready for use; start from NewVariant or
// call Init.
type Variant struct {
	Type            *DataType
	Storage         VariantStorageType
	Value           interface{}
	ArrayLength     int32
	ArrayDimensions []int32
	Source          DataSource
}

// NewVariant returns an empty Variant.
func NewVariant() *Variant {
	v := &Variant{}
	v.Init()
	return v
}

// Init resets the Variant to empty without releasing anything. Use Clear
// on a Variant that may own a payload.
func (v *Variant) Init() {
	*v = Variant{ArrayLength: -1}
}

// IsEmpty reports whether the Variant carries no type at all.
func (v *Variant) IsEmpty() bool {
	return v.Type == nil
}

// IsScalar reports whether the Variant holds a resident scalar.
func (v *Variant) IsScalar() bool {
	return v.Type != nil && v.Storage != VariantDataSource &&
		v.ArrayLength < 0 && v.Value != nil
}

// IsArray reports whether the Variant holds a resident array.
func (v *Variant) IsArray() bool {
	return v.Type != nil && v.Storage != VariantDataSource && v.ArrayLength >= 0
}

// SetValue adopts a hand-assembled scalar (*T) as an owned payload. The
// value is credited to the registry as if the engine had built it; adopt a
// value at most once, and never one the engine already accounts for (use
// CopySetValue to capture those).
func (v *Variant) SetValue(t *DataType, p interface{}) error {
	val, err := t.value(p)
	if err != nil {
		return err
	}
	v.Clear()
	v.Type = t
	v.Storage = VariantData
	v.Value = p
	v.ArrayLength = -1
	t.registry.metrics.ValuesAdopted.Add(1)
	t.registry.metrics.ObjectsAllocated.Add(1)
	t.accountValue(val)
	return nil
}

// SetArray adopts a hand-assembled []T as an owned payload, crediting its
// backing buffer to the registry. A nil slice is the absent array.
func (v *Variant) SetArray(t *DataType, s interface{}) error {
	sv, err := t.sliceValue(s)
	if err != nil {
		return err
	}
	v.Clear()
	v.Type = t
	v.Storage = VariantData
	v.Value = s
	if sv.IsNil() {
		v.ArrayLength = -1
	} else {
		v.ArrayLength = int32(sv.Len())
	}
	t.registry.metrics.ValuesAdopted.Add(1)
	t.registry.accountSlice(t, sv)
	return nil
}

// SetValueNoDelete points the Variant at a scalar it does not own. Clear
// drops the reference without releasing; Write is rejected.
func (v *Variant) SetValueNoDelete(t *DataType, p interface{}) error {
	if _, err := t.value(p); err != nil {
		return err
	}
	v.Clear()
	v.Type = t
	v.Storage = VariantDataNoDelete
	v.Value = p
	v.ArrayLength = -1
	return nil
}

// SetArrayNoDelete points the Variant at a []T it does not own.
func (v *Variant) SetArrayNoDelete(t *DataType, s interface{}) error {
	sv, err := t.sliceValue(s)
	if err != nil {
		return err
	}
	v.Clear()
	v.Type = t
	v.Storage = VariantDataNoDelete
	v.Value = s
	if sv.IsNil() {
		v.ArrayLength = -1
	} else {
		v.ArrayLength = int32(sv.Len())
	}
	return nil
}

// CopySetValue deep-copies a scalar (*T) into a freshly allocated owned
// payload, leaving the source untouched.
func (v *Variant) CopySetValue(t *DataType, src interface{}) error {
	p, err := t.New()
	if err != nil {
		return err
	}
	if err := t.Copy(p, src); err != nil {
		t.registry.metrics.ObjectsReleased.Add(1)
		return err
	}
	v.Clear()
	v.Type = t
	v.Storage = VariantData
	v.Value = p
	v.ArrayLength = -1
	return nil
}

// CopySetArray deep-copies a []T into a freshly allocated owned payload.
func (v *Variant) CopySetArray(t *DataType, src interface{}) error {
	dst := reflect.New(reflect.SliceOf(t.goType))
	if err := t.CopyArray(dst.Interface(), src); err != nil {
		return err
	}
	sv := dst.Elem()
	v.Clear()
	v.Type = t
	v.Storage = VariantData
	v.Value = sv.Interface()
	if sv.IsNil() {
		v.ArrayLength = -1
	} else {
		v.ArrayLength = int32(sv.Len())
	}
	return nil
}

// SetDataSource binds the Variant to a DataSource. The Variant owns the
// source from here on: Clear calls Close exactly once.
func (v *Variant) SetDataSource(t *DataType, src DataSource) error {
	if t == nil || src == nil {
		return StatusBadInvalidArgument
	}
	v.Clear()
	v.Type = t
	v.Storage = VariantDataSource
	v.ArrayLength = -1
	v.Source = src
	return nil
}

// View runs fn over a borrowed snapshot of the payload. For source-backed
// Variants the snapshot comes from Source.Read and is released on every
// exit path, fn panicking included. fn must not retain any part of the
// snapshot.
func (v *Variant) View(fn func(VariantValue) error) error {
	if v.Type == nil {
		return StatusBadNoDataAvailable
	}
	if v.Storage == VariantDataSource {
		if v.Source == nil {
			return StatusBadNoDataAvailable
		}
		val, err := v.Source.Read()
		if err != nil {
			return err
		}
		defer v.Source.Release(val)
		return fn(val)
	}
	return fn(VariantValue{
		ArrayLength:     v.ArrayLength,
		Value:           v.Value,
		ArrayDimensions: v.ArrayDimensions,
	})
}

// Write pushes a new value into the Variant. Owned payloads are replaced
// (the snapshot's contents are deep-copied in); source-backed Variants
// delegate to the source. Borrowed payloads reject the write with
// StatusBadInvalidState.
func (v *Variant) Write(val VariantValue) error {
	if v.Type == nil {
		return StatusBadInvalidState
	}
	switch v.Storage {
	case VariantDataSource:
		if v.Source == nil {
			return StatusBadInvalidState
		}
		return v.Source.Write(val)
	case VariantDataNoDelete:
		return StatusBadInvalidState
	case VariantData:
		t := v.Type
		if val.Value == nil {
			return StatusBadInvalidArgument
		}
		replacement := Variant{ArrayLength: -1}
		var err error
		switch reflect.ValueOf(val.Value).Kind() {
		case reflect.Slice:
			err = replacement.CopySetArray(t, val.Value)
		case reflect.Ptr:
			err = replacement.CopySetValue(t, val.Value)
		default:
			return StatusBadInvalidArgument
		}
		if err != nil {
			return err
		}
		v.Clear()
		*v = replacement
		if len(val.ArrayDimensions) > 0 {
			v.ArrayDimensions = append([]int32(nil), val.ArrayDimensions...)
		}
		return nil
	default:
		return StatusBadInvalidState
	}
}

// CopyInto deep-copies the Variant into dst as an owned payload. Borrowed
// payloads are copied by value, so the copy outlives the original.
// Source-backed Variants cannot be copied; take a snapshot with View and
// copy that instead. The error is StatusBadInvalidState.
func (v *Variant) CopyInto(dst *Variant) error {
	switch v.Storage {
	case VariantDataSource:
		return StatusBadInvalidState
	case VariantData, VariantDataNoDelete:
		if v.Type == nil {
			dst.Clear()
			return nil
		}
		t := v.Type
		if v.Value == nil {
			dst.Clear()
			dst.Type = t
			dst.Storage = VariantData
			dst.ArrayLength = -1
			return nil
		}
		replacement := Variant{ArrayLength: -1}
		var err error
		switch reflect.ValueOf(v.Value).Kind() {
		case reflect.Slice:
			err = replacement.CopySetArray(t, v.Value)
		case reflect.Ptr:
			err = replacement.CopySetValue(t, v.Value)
		default:
			err = StatusBadInvalidState
		}
		if err != nil {
			return err
		}
		dst.Clear()
		*dst = replacement
		if len(v.ArrayDimensions) > 0 {
			dst.ArrayDimensions = append([]int32(nil), v.ArrayDimensions...)
		}
		return nil
	default:
		return StatusBadInvalidState
	}
}

// Equal deep-compares two Variants by value, borrowed or owned alike. A
// source-backed Variant has no resident value, so Equal reports false
// whenever either side is source-backed.
func (v *Variant) Equal(o *Variant) bool {
	if v.Storage == VariantDataSource || o.Storage == VariantDataSource {
		return false
	}
	if v.Type == nil || o.Type == nil {
		return v.Type == nil && o.Type == nil
	}
	if v.Type.TypeIndex != o.Type.TypeIndex || v.Type.Name != o.Type.Name {
		return false
	}
	if v.ArrayLength != o.ArrayLength {
		return false
	}
	if !reflect.DeepEqual(v.ArrayDimensions, o.ArrayDimensions) {
		return false
	}
	if v.Value == nil || o.Value == nil {
		return v.Value == nil && o.Value == nil
	}
	a := reflect.ValueOf(v.Value)
	b := reflect.ValueOf(o.Value)
	if a.Kind() == reflect.Ptr && b.Kind() == reflect.Ptr {
		return reflect.DeepEqual(a.Elem().Interface(), b.Elem().Interface())
	}
	return reflect.DeepEqual(v.Value, o.Value)
}

// Clear releases whatever the Variant owns for its storage mode and
// resets it to empty. Owned payloads are released and uncounted, borrowed
// payloads are dropped, and a bound DataSource is closed.
func (v *Variant) Clear() {
	switch v.Storage {
	case VariantData:
		if v.Type != nil && v.Value != nil {
			t := v.Type
			rv := reflect.ValueOf(v.Value)
			switch rv.Kind() {
			case reflect.Ptr:
				t.clearValue(rv.Elem())
				t.registry.metrics.ObjectsReleased.Add(1)
			case reflect.Slice:
				s := reflect.New(rv.Type())
				s.Elem().Set(rv)
				t.registry.clearSlice(t, s.Elem())
			}
		}
	case VariantDataSource:
		if v.Source != nil {
			if err := v.Source.Close(); err != nil && v.Type != nil {
				v.Type.registry.logger.Warn("data source close failed",
					slog.String("type", v.Type.Name),
					slog.String("error", err.Error()))
			}
		}
	}
	*v = Variant{ArrayLength: -1}
}

// variantOps lets Variants live inside other described types (DataValue's
// Value member) under the generic engine.
var variantOps = &typeOps{
	init: func(_ *Registry, v reflect.Value) {
		v.Addr().Interface().(*Variant).Init()
	},
	copy: func(_ *Registry, dst, src reflect.Value) error {
		return src.Addr().Interface().(*Variant).CopyInto(dst.Addr().Interface().(*Variant))
	},
	clear: func(_ *Registry, v reflect.Value) {
		v.Addr().Interface().(*Variant).Clear()
	},
	account: func(r *Registry, v reflect.Value) {
		vv := v.Addr().Interface().(*Variant)
		if vv.Storage != VariantData || vv.Type == nil || vv.Value == nil {
			return
		}
		rv := reflect.ValueOf(vv.Value)
		switch rv.Kind() {
		case reflect.Ptr:
			r.metrics.ObjectsAllocated.Add(1)
			vv.Type.accountValue(rv.Elem())
		case reflect.Slice:
			r.accountSlice(vv.Type, rv)
		}
	},
}
