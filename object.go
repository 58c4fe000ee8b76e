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

// typeOps overrides the descriptor-driven walk for types whose layout the
// walk cannot express: the string family, Variant and DiagnosticInfo.
type typeOps struct {
	init    func(r *Registry, v reflect.Value)
	copy    func(r *Registry, dst, src reflect.Value) error
	clear   func(r *Registry, v reflect.Value)
	account func(r *Registry, v reflect.Value)
}

// New allocates a fresh, initialized value of the type and returns a
// pointer to it. The allocation is counted; release it with Delete to keep
// the registry's outstanding totals balanced.
func (t *DataType) New() (interface{}, error) {
	if err := t.registry.allocBytes(int64(t.MemSize)); err != nil {
		return nil, err
	}
	pv := reflect.New(t.goType)
	t.initValue(pv.Elem())
	t.registry.metrics.ObjectsAllocated.Add(1)
	return pv.Interface(), nil
}

// Init sets a value to its initial state: numerics to zero, strings and
// arrays to absent. Init never allocates and must not be applied to a
// value still holding owned buffers; Clear first.
func (t *DataType) Init(p interface{}) error {
	v, err := t.value(p)
	if err != nil {
		return err
	}
	t.initValue(v)
	return nil
}

// Copy deep-copies src into dst. dst must be initialized; on failure dst
// is rolled back to its initialized state and nothing allocated by the
// failed copy remains live.
func (t *DataType) Copy(dst, src interface{}) error {
	dv, err := t.value(dst)
	if err != nil {
		return err
	}
	sv, err := t.value(src)
	if err != nil {
		return err
	}
	if err := t.copyValue(dv, sv); err != nil {
		t.registry.metrics.CopyRollbacks.Add(1)
		return err
	}
	return nil
}

// Clear releases every buffer the value owns and returns it to its
// initialized state. The value itself stays live; Clear is idempotent.
func (t *DataType) Clear(p interface{}) error {
	v, err := t.value(p)
	if err != nil {
		return err
	}
	t.clearValue(v)
	return nil
}

// Delete clears the value and retires it from the registry's accounting.
// Use it on values produced by New or adopted by the engine.
func (t *DataType) Delete(p interface{}) error {
	v, err := t.value(p)
	if err != nil {
		return err
	}
	t.clearValue(v)
	t.registry.metrics.ObjectsReleased.Add(1)
	return nil
}

// value checks that p is a non-nil pointer to the descriptor's Go type and
// returns the addressable value behind it.
func (t *DataType) value(p interface{}) (reflect.Value, error) {
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, StatusBadInvalidArgument
	}
	if rv.Type().Elem() != t.goType {
		return reflect.Value{}, StatusBadTypeMismatch
	}
	return rv.Elem(), nil
}

func (t *DataType) initValue(v reflect.Value) {
	if t.ops != nil {
		t.ops.init(t.registry, v)
		return
	}
	if t.FixedSize {
		v.SetZero()
		return
	}
	for i := range t.Members {
		m := &t.Members[i]
		f := v.Field(m.fieldIndex)
		switch {
		case m.IsArray:
			f.SetZero()
		case m.memberType != nil:
			m.memberType.initValue(f)
		default:
			f.SetZero()
		}
	}
}

// copyValue copies member by member. When member k fails, members [0,k)
// are cleared again so the destination ends up exactly as initialized.
func (t *DataType) copyValue(dst, src reflect.Value) error {
	if t.ops != nil {
		return t.ops.copy(t.registry, dst, src)
	}
	if t.FixedSize {
		dst.Set(src)
		return nil
	}
	for i := range t.Members {
		m := &t.Members[i]
		df := dst.Field(m.fieldIndex)
		sf := src.Field(m.fieldIndex)

		var err error
		switch {
		case m.IsArray:
			err = t.registry.copySlice(m.memberType, df, sf)
		case m.memberType != nil:
			err = m.memberType.copyValue(df, sf)
		default:
			df.Set(sf)
		}
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				t.clearMember(&t.Members[j], dst)
			}
			return err
		}
	}
	return nil
}

func (t *DataType) clearValue(v reflect.Value) {
	if t.ops != nil {
		t.ops.clear(t.registry, v)
		return
	}
	if t.FixedSize {
		v.SetZero()
		return
	}
	for i := range t.Members {
		t.clearMember(&t.Members[i], v)
	}
}

func (t *DataType) clearMember(m *DataTypeMember, v reflect.Value) {
	f := v.Field(m.fieldIndex)
	switch {
	case m.IsArray:
		t.registry.clearSlice(m.memberType, f)
	case m.memberType != nil:
		m.memberType.clearValue(f)
	default:
		f.SetZero()
	}
}

// accountValue credits the registry with every buffer an adopted value
// owns, so that a later Clear releases exactly what was credited.
func (t *DataType) accountValue(v reflect.Value) {
	if t.ops != nil {
		if t.ops.account != nil {
			t.ops.account(t.registry, v)
		}
		return
	}
	if t.FixedSize {
		return
	}
	for i := range t.Members {
		m := &t.Members[i]
		f := v.Field(m.fieldIndex)
		switch {
		case m.IsArray:
			t.registry.accountSlice(m.memberType, f)
		case m.memberType != nil:
			m.memberType.accountValue(f)
		}
	}
}

// String family ops. String, ByteString and XMLElement share the same
// two-field shape, so a single reflect-based implementation serves all
// three.

func stringLength(v reflect.Value) int64 { return v.Field(0).Int() }

func stringBuffer(v reflect.Value) reflect.Value { return v.Field(1) }

var stringOps = &typeOps{
	init: func(_ *Registry, v reflect.Value) {
		v.Field(0).SetInt(-1)
		stringBuffer(v).SetZero()
	},
	copy: func(r *Registry, dst, src reflect.Value) error {
		length := stringLength(src)
		if length < 0 {
			dst.Field(0).SetInt(-1)
			stringBuffer(dst).SetZero()
			return nil
		}
		if length > r.maxArrayBytes {
			return StatusBadOutOfRange
		}
		if err := r.allocBytes(length); err != nil {
			return err
		}
		buf := reflect.MakeSlice(stringBuffer(dst).Type(), int(length), int(length))
		reflect.Copy(buf, stringBuffer(src))
		dst.Field(0).SetInt(length)
		stringBuffer(dst).Set(buf)
		r.metrics.BuffersAllocated.Add(1)
		r.metrics.BytesAllocated.Add(length)
		return nil
	},
	clear: func(r *Registry, v reflect.Value) {
		if length := stringLength(v); length >= 0 {
			r.metrics.BuffersReleased.Add(1)
			r.metrics.BytesReleased.Add(length)
		}
		v.Field(0).SetInt(-1)
		stringBuffer(v).SetZero()
	},
	account: func(r *Registry, v reflect.Value) {
		if length := stringLength(v); length >= 0 {
			r.metrics.BuffersAllocated.Add(1)
			r.metrics.BytesAllocated.Add(length)
		}
	},
}

// copyString is the typed entry point to the string ops, used where the
// engine holds concrete String fields.
func (r *Registry) copyString(dst *String, src String) error {
	return stringOps.copy(r, reflect.ValueOf(dst).Elem(), reflect.ValueOf(&src).Elem())
}

func (r *Registry) clearString(s *String) {
	stringOps.clear(r, reflect.ValueOf(s).Elem())
}

// DiagnosticInfo ops. The recursive inner pointer puts the type outside
// what the member walk can describe.

var diagnosticInfoOps = &typeOps{
	init: func(_ *Registry, v reflect.Value) {
		d := v.Addr().Interface().(*DiagnosticInfo)
		*d = DiagnosticInfo{AdditionalInfo: NullString}
	},
	copy: func(r *Registry, dst, src reflect.Value) error {
		d := dst.Addr().Interface().(*DiagnosticInfo)
		s := src.Addr().Interface().(*DiagnosticInfo)
		return r.copyDiagnosticInfo(d, s)
	},
	clear: func(r *Registry, v reflect.Value) {
		r.clearDiagnosticInfo(v.Addr().Interface().(*DiagnosticInfo))
	},
	account: func(r *Registry, v reflect.Value) {
		d := v.Addr().Interface().(*DiagnosticInfo)
		for d != nil {
			stringOps.account(r, reflect.ValueOf(&d.AdditionalInfo).Elem())
			if d.InnerDiagnosticInfo != nil {
				r.metrics.ObjectsAllocated.Add(1)
			}
			d = d.InnerDiagnosticInfo
		}
	},
}

func (r *Registry) copyDiagnosticInfo(dst, src *DiagnosticInfo) error {
	dst.Flags = src.Flags
	dst.SymbolicID = src.SymbolicID
	dst.NamespaceURI = src.NamespaceURI
	dst.LocalizedText = src.LocalizedText
	dst.Locale = src.Locale
	dst.InnerStatusCode = src.InnerStatusCode
	dst.InnerDiagnosticInfo = nil

	if err := r.copyString(&dst.AdditionalInfo, src.AdditionalInfo); err != nil {
		r.clearDiagnosticInfo(dst)
		return err
	}
	if src.InnerDiagnosticInfo != nil {
		if err := r.allocBytes(int64(reflect.TypeOf(DiagnosticInfo{}).Size())); err != nil {
			r.clearDiagnosticInfo(dst)
			return err
		}
		inner := &DiagnosticInfo{AdditionalInfo: NullString}
		r.metrics.ObjectsAllocated.Add(1)
		if err := r.copyDiagnosticInfo(inner, src.InnerDiagnosticInfo); err != nil {
			r.metrics.ObjectsReleased.Add(1)
			r.clearDiagnosticInfo(dst)
			return err
		}
		dst.InnerDiagnosticInfo = inner
	}
	return nil
}

func (r *Registry) clearDiagnosticInfo(d *DiagnosticInfo) {
	r.clearString(&d.AdditionalInfo)
	if d.InnerDiagnosticInfo != nil {
		r.clearDiagnosticInfo(d.InnerDiagnosticInfo)
		r.metrics.ObjectsReleased.Add(1)
	}
	*d = DiagnosticInfo{AdditionalInfo: NullString}
}
