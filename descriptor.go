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
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Limits of the descriptor model.
const (
	// MaxTypeMembers is the maximum number of members per structured type.
	MaxTypeMembers = 13

	// MaxArraySize is the default upper bound, in bytes, for any single
	// array allocation.
	MaxArraySize = 104857600
)

// InlineTypeIndex marks a member that is not a registered data type but a
// fixed-layout Go value copied by assignment (enumeration tags, fixed
// byte arrays). Inline members own no sub-allocations.
const InlineTypeIndex uint16 = 0xFFFF

// Indexes of the built-in (namespace zero) types in every registry's
// descriptor table.
const (
	TypeIndexBoolean uint16 = iota
	TypeIndexSByte
	TypeIndexByte
	TypeIndexInt16
	TypeIndexUInt16
	TypeIndexInt32
	TypeIndexUInt32
	TypeIndexInt64
	TypeIndexUInt64
	TypeIndexFloat
	TypeIndexDouble
	TypeIndexString
	TypeIndexDateTime
	TypeIndexGuid
	TypeIndexByteString
	TypeIndexXMLElement
	TypeIndexNodeID
	TypeIndexExpandedNodeID
	TypeIndexStatusCode
	TypeIndexQualifiedName
	TypeIndexLocalizedText
	TypeIndexExtensionObject
	TypeIndexDataValue
	TypeIndexVariant
	TypeIndexDiagnosticInfo

	// BuiltinTypeCount is the number of built-in types.
	BuiltinTypeCount
)

// DataTypeMember describes one field of a structured type: which type it
// has, whether that type is built-in (namespace zero), the padding bytes
// preceding the field, and whether the field is an array. Offsets and
// padding are derived mechanically from the Go struct layout, never
// hand-authored.
type DataTypeMember struct {
	Name            string
	MemberTypeIndex uint16
	NamespaceZero   bool
	Padding         uint8
	IsArray         bool
	Offset          uintptr

	fieldIndex int
	memberType *DataType // nil for inline members
}

// DataType is the runtime descriptor of one data type: its in-memory size,
// table position, layout flags and ordered member list. The lifecycle
// engine interprets descriptors to implement new/init/copy/clear/delete
// without static per-type code.
type DataType struct {
	Name          string
	TypeIndex     uint16
	TypeID        NodeID
	NamespaceZero bool

	// FixedSize means no transitive member owns a pointer or array, so the
	// whole value can be copied as raw bytes and cleared as a no-op.
	FixedSize bool

	// ZeroCopyable means the in-memory representation may be aliased
	// directly against wire bytes: fixed size and no padding anywhere.
	ZeroCopyable bool

	MemSize uintptr
	Members []DataTypeMember

	goType   reflect.Type
	registry *Registry
	ops      *typeOps
}

// GoType returns the Go type the descriptor was derived from.
func (t *DataType) GoType() reflect.Type { return t.goType }

// Registry returns the registry that owns the descriptor.
func (t *DataType) Registry() *Registry { return t.registry }

// String returns the descriptor's name.
func (t *DataType) String() string { return t.Name }

// Registry holds an indexed table of DataType descriptors: the 25 built-in
// types at fixed positions, followed by registered custom types. The table
// is the contract consumed by the external binary codec and by the
// server/address-space layer.
type Registry struct {
	mu       sync.RWMutex
	types    []*DataType
	byName   map[string]*DataType
	byGoType map[reflect.Type]*DataType

	maxArrayBytes int64
	allocGuard    func(bytes int64) error
	metrics       *AllocMetrics
	logger        *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxArrayBytes overrides the maximum byte size of a single array
// allocation.
func WithMaxArrayBytes(n int64) RegistryOption {
	return func(r *Registry) { r.maxArrayBytes = n }
}

// WithAllocGuard installs an admission check invoked before every
// allocation the engine performs. A non-nil return fails the allocation
// with StatusBadOutOfMemory; the engine rolls back and reports the error.
func WithAllocGuard(fn func(bytes int64) error) RegistryOption {
	return func(r *Registry) { r.allocGuard = fn }
}

// WithLogger sets the logger used for registration diagnostics.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates a registry seeded with the built-in types.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName:        make(map[string]*DataType),
		byGoType:      make(map[reflect.Type]*DataType),
		maxArrayBytes: MaxArraySize,
		metrics:       NewAllocMetrics(),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.seedBuiltins()
	return r
}

// Metrics returns the registry's allocation accounting.
func (r *Registry) Metrics() *AllocMetrics { return r.metrics }

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Builtin returns the descriptor of a built-in type. It panics on an index
// outside the built-in range; use ByIndex for dynamic lookups.
func (r *Registry) Builtin(index uint16) *DataType {
	if index >= BuiltinTypeCount {
		panic(fmt.Sprintf("uatypes: %d is not a builtin type index", index))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[index]
}

// ByIndex returns the descriptor at a table position.
func (r *Registry) ByIndex(index uint16) (*DataType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(index) >= len(r.types) {
		return nil, false
	}
	return r.types[index], true
}

// ByName returns the descriptor registered under a name.
func (r *Registry) ByName(name string) (*DataType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// ForValue returns the descriptor for a value or pointer-to-value of a
// registered Go type.
func (r *Registry) ForValue(p interface{}) (*DataType, bool) {
	if p == nil {
		return nil, false
	}
	rt := reflect.TypeOf(p)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byGoType[rt]
	return t, ok
}

// Types returns a snapshot of the descriptor table in index order.
func (r *Registry) Types() []*DataType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*DataType, len(r.types))
	copy(out, r.types)
	return out
}

// RegisterOption configures a single type registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	typeID *NodeID
}

// WithTypeID assigns an explicit NodeID to the registered type instead of
// the default numeric ID in namespace 1.
func WithTypeID(id NodeID) RegisterOption {
	return func(c *registerConfig) { c.typeID = &id }
}

// Register derives a descriptor for a custom struct type and appends it to
// the table. The prototype may be a value or a pointer; every field must
// be a registered data type, a slice of one, or a fixed-layout scalar.
func (r *Registry) Register(name string, prototype interface{}, opts ...RegisterOption) (*DataType, error) {
	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	rt := reflect.TypeOf(prototype)
	if rt == nil {
		return nil, fmt.Errorf("uatypes: cannot register a nil prototype")
	}
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("uatypes: prototype for %q must be a struct, got %s", name, rt.Kind())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, fmt.Errorf("uatypes: type %q is already registered", name)
	}
	if _, exists := r.byGoType[rt]; exists {
		return nil, fmt.Errorf("uatypes: Go type %s is already registered", rt)
	}

	index := uint16(len(r.types))
	t := &DataType{
		Name:      name,
		TypeIndex: index,
		TypeID:    NewNumericNodeID(1, uint32(index)+1),
		MemSize:   rt.Size(),
		goType:    rt,
		registry:  r,
	}
	if cfg.typeID != nil {
		t.TypeID = *cfg.typeID
	}

	members, layout, err := r.deriveMembers(rt)
	if err != nil {
		return nil, fmt.Errorf("uatypes: deriving %q: %w", name, err)
	}
	t.Members = members
	t.FixedSize = layout.fixed
	t.ZeroCopyable = layout.fixed && layout.paddingFree

	r.types = append(r.types, t)
	r.byName[name] = t
	r.byGoType[rt] = t

	r.logger.Debug("registered data type",
		slog.String("name", name),
		slog.Int("index", int(index)),
		slog.Int("mem_size", int(t.MemSize)),
		slog.Int("members", len(t.Members)),
		slog.Bool("fixed_size", t.FixedSize),
		slog.Bool("zero_copyable", t.ZeroCopyable))

	return t, nil
}

// MustRegister is Register, panicking on error.
func (r *Registry) MustRegister(name string, prototype interface{}, opts ...RegisterOption) *DataType {
	t, err := r.Register(name, prototype, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// memberLayout summarizes what deriveMembers learned about a struct.
type memberLayout struct {
	fixed       bool
	paddingFree bool
}

// kindTypeIndex maps plain Go scalar kinds to built-in type indexes for
// fields whose exact Go type is not registered (enumeration tags and the
// like).
var kindTypeIndex = map[reflect.Kind]uint16{
	reflect.Bool:    TypeIndexBoolean,
	reflect.Int8:    TypeIndexSByte,
	reflect.Uint8:   TypeIndexByte,
	reflect.Int16:   TypeIndexInt16,
	reflect.Uint16:  TypeIndexUInt16,
	reflect.Int32:   TypeIndexInt32,
	reflect.Uint32:  TypeIndexUInt32,
	reflect.Int64:   TypeIndexInt64,
	reflect.Uint64:  TypeIndexUInt64,
	reflect.Float32: TypeIndexFloat,
	reflect.Float64: TypeIndexDouble,
}

// deriveMembers computes the member list of a struct type from its actual
// Go layout. Callers hold r.mu (or run during seeding, before the registry
// escapes).
func (r *Registry) deriveMembers(rt reflect.Type) ([]DataTypeMember, memberLayout, error) {
	layout := memberLayout{fixed: true, paddingFree: true}

	if rt.NumField() > MaxTypeMembers {
		return nil, layout, fmt.Errorf("%s has %d members, limit is %d", rt, rt.NumField(), MaxTypeMembers)
	}

	members := make([]DataTypeMember, 0, rt.NumField())
	var prevEnd uintptr
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" {
			return nil, layout, fmt.Errorf("%s.%s is unexported", rt, f.Name)
		}

		pad := f.Offset - prevEnd
		if pad > 255 {
			return nil, layout, fmt.Errorf("%s.%s has %d padding bytes before it", rt, f.Name, pad)
		}
		if pad != 0 {
			layout.paddingFree = false
		}

		m := DataTypeMember{
			Name:       f.Name,
			Padding:    uint8(pad),
			Offset:     f.Offset,
			fieldIndex: i,
		}

		ft := f.Type
		if ft.Kind() == reflect.Slice {
			m.IsArray = true
			layout.fixed = false
			ft = ft.Elem()
		}

		switch {
		case r.byGoType[ft] != nil:
			mt := r.byGoType[ft]
			m.MemberTypeIndex = mt.TypeIndex
			m.NamespaceZero = mt.NamespaceZero
			m.memberType = mt
			if !mt.FixedSize && !m.IsArray {
				layout.fixed = false
			}
			if !mt.ZeroCopyable {
				layout.paddingFree = false
			}
		case isFixedGoType(ft):
			if idx, ok := kindTypeIndex[ft.Kind()]; ok {
				m.MemberTypeIndex = idx
				m.NamespaceZero = true
			} else {
				m.MemberTypeIndex = InlineTypeIndex
			}
		default:
			return nil, layout, fmt.Errorf("%s.%s: %s is not a registered data type", rt, f.Name, f.Type)
		}

		prevEnd = f.Offset + f.Type.Size()
		members = append(members, m)
	}

	if prevEnd != rt.Size() {
		layout.paddingFree = false
	}
	return members, layout, nil
}

// isFixedGoType reports whether a Go type contains no pointers, slices,
// strings or interfaces anywhere, making it safe to copy by assignment.
func isFixedGoType(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Array:
		return isFixedGoType(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if !isFixedGoType(rt.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// allocBytes runs the registry's admission check before an allocation.
func (r *Registry) allocBytes(n int64) error {
	if r.allocGuard != nil {
		if err := r.allocGuard(n); err != nil {
			return StatusBadOutOfMemory
		}
	}
	return nil
}

// seedBuiltins fills the table with the 25 built-in descriptors. Entries
// are created first so that member derivation can resolve forward
// references (DataValue's Variant member, NodeID's String arms).
func (r *Registry) seedBuiltins() {
	type seed struct {
		name  string
		proto interface{}
		ops   *typeOps
		fixed bool
	}
	seeds := [BuiltinTypeCount]seed{
		TypeIndexBoolean:         {"Boolean", bool(false), nil, true},
		TypeIndexSByte:           {"SByte", int8(0), nil, true},
		TypeIndexByte:            {"Byte", uint8(0), nil, true},
		TypeIndexInt16:           {"Int16", int16(0), nil, true},
		TypeIndexUInt16:          {"UInt16", uint16(0), nil, true},
		TypeIndexInt32:           {"Int32", int32(0), nil, true},
		TypeIndexUInt32:          {"UInt32", uint32(0), nil, true},
		TypeIndexInt64:           {"Int64", int64(0), nil, true},
		TypeIndexUInt64:          {"UInt64", uint64(0), nil, true},
		TypeIndexFloat:           {"Float", float32(0), nil, true},
		TypeIndexDouble:          {"Double", float64(0), nil, true},
		TypeIndexString:          {"String", String{}, stringOps, false},
		TypeIndexDateTime:        {"DateTime", DateTime(0), nil, true},
		TypeIndexGuid:            {"Guid", Guid{}, nil, true},
		TypeIndexByteString:      {"ByteString", ByteString{}, stringOps, false},
		TypeIndexXMLElement:      {"XmlElement", XMLElement{}, stringOps, false},
		TypeIndexNodeID:          {"NodeId", NodeID{}, nil, false},
		TypeIndexExpandedNodeID:  {"ExpandedNodeId", ExpandedNodeID{}, nil, false},
		TypeIndexStatusCode:      {"StatusCode", StatusCode(0), nil, true},
		TypeIndexQualifiedName:   {"QualifiedName", QualifiedName{}, nil, false},
		TypeIndexLocalizedText:   {"LocalizedText", LocalizedText{}, nil, false},
		TypeIndexExtensionObject: {"ExtensionObject", ExtensionObject{}, nil, false},
		TypeIndexDataValue:       {"DataValue", DataValue{}, nil, false},
		TypeIndexVariant:         {"Variant", Variant{}, variantOps, false},
		TypeIndexDiagnosticInfo:  {"DiagnosticInfo", DiagnosticInfo{}, diagnosticInfoOps, false},
	}

	for i, s := range seeds {
		rt := reflect.TypeOf(s.proto)
		t := &DataType{
			Name:          s.name,
			TypeIndex:     uint16(i),
			TypeID:        NewNumericNodeID(0, uint32(i)+1),
			NamespaceZero: true,
			FixedSize:     s.fixed,
			ZeroCopyable:  s.fixed,
			MemSize:       rt.Size(),
			goType:        rt,
			registry:      r,
			ops:           s.ops,
		}
		r.types = append(r.types, t)
		r.byName[s.name] = t
		r.byGoType[rt] = t
	}

	// Second pass: derive member metadata for the structured builtins.
	for _, t := range r.types {
		if t.goType.Kind() != reflect.Struct {
			continue
		}
		members, layout, err := r.deriveMembers(t.goType)
		if err != nil {
			if t.ops == nil && !t.FixedSize {
				panic(fmt.Sprintf("uatypes: builtin %s: %v", t.Name, err))
			}
			// Variant and DiagnosticInfo hold fields only their own ops
			// understand; their descriptors carry no member list.
			continue
		}
		t.Members = members
		if t.ops == nil && !t.FixedSize {
			t.FixedSize = layout.fixed
			t.ZeroCopyable = layout.fixed && layout.paddingFree
		}
	}
}
