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

// Package uatypes implements the OPC UA data-model core: the built-in
// types, runtime type descriptors, and a generic lifecycle engine that
// allocates, initializes, deep-copies and releases values of any described
// type without per-type code.
package uatypes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Ranges of the built-in integer types.
const (
	SByteMin  = math.MinInt8
	SByteMax  = math.MaxInt8
	ByteMin   = 0
	ByteMax   = math.MaxUint8
	Int16Min  = math.MinInt16
	Int16Max  = math.MaxInt16
	UInt16Min = 0
	UInt16Max = math.MaxUint16
	Int32Min  = math.MinInt32
	Int32Max  = math.MaxInt32
	UInt32Min = 0
	UInt32Max = math.MaxUint32
	Int64Min  = math.MinInt64
	Int64Max  = math.MaxInt64
	UInt64Min = 0
)

// String is a length-prefixed sequence of bytes. A Length of -1 marks the
// absent (null) string; Data must not be accessed in that case. A Length of
// 0 with non-nil Data is a present, empty string, distinct from absent.
type String struct {
	Length int32
	Data   []byte
}

// NullString is the absent string.
var NullString = String{Length: -1}

// StringFrom builds a String over a literal. The result is a borrowed
// template: pass it as a copy source or adopt it into a Variant, but do not
// Clear it through a descriptor unless the engine produced it.
func StringFrom(s string) String {
	return String{Length: int32(len(s)), Data: []byte(s)}
}

// StringFromFormat builds a String from a formatted message.
func StringFromFormat(format string, args ...interface{}) String {
	return StringFrom(fmt.Sprintf(format, args...))
}

// IsAbsent reports whether the string carries no value at all.
func (s String) IsAbsent() bool {
	return s.Length < 0
}

// Equal reports whether two strings have the same length and bytes. Two
// absent strings are equal; an absent string is never equal to an empty one.
func (s String) Equal(o String) bool {
	if s.IsAbsent() || o.IsAbsent() {
		return s.IsAbsent() && o.IsAbsent()
	}
	return s.Length == o.Length && bytes.Equal(s.Data, o.Data)
}

// String implements fmt.Stringer. The absent string renders as "<null>".
func (s String) String() string {
	if s.IsAbsent() {
		return "<null>"
	}
	return string(s.Data)
}

// ByteString is a sequence of octets with String's absence semantics.
type ByteString String

// NewByteString builds a present ByteString of the given length. A negative
// length yields the absent ByteString.
func NewByteString(length int32) ByteString {
	if length < 0 {
		return ByteString{Length: -1}
	}
	return ByteString{Length: length, Data: make([]byte, length)}
}

// IsAbsent reports whether the byte string carries no value.
func (b ByteString) IsAbsent() bool { return b.Length < 0 }

// Equal reports whether two byte strings are equal under String's rules.
func (b ByteString) Equal(o ByteString) bool { return String(b).Equal(String(o)) }

// XMLElement is an XML fragment with String's absence semantics.
type XMLElement String

// DateTime is the number of 100 nanosecond intervals since
// January 1, 1601 (UTC).
type DateTime int64

// 100ns ticks between 1601-01-01 and the Unix epoch.
const dateTimeUnixEpoch = 116444736000000000

// DateTimeNow returns the current time as a DateTime.
func DateTimeNow() DateTime {
	return DateTimeFromTime(time.Now())
}

// DateTimeFromTime converts a time.Time to a DateTime.
func DateTimeFromTime(t time.Time) DateTime {
	return DateTime(t.UnixNano()/100 + dateTimeUnixEpoch)
}

// Time converts the DateTime to a time.Time in UTC.
func (d DateTime) Time() time.Time {
	return time.Unix(0, (int64(d)-dateTimeUnixEpoch)*100).UTC()
}

// String returns the RFC 3339 rendering of the DateTime.
func (d DateTime) String() string {
	return d.Time().Format(time.RFC3339Nano)
}

// Guid is a 16 byte globally unique identifier.
type Guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// GuidFromUUID converts an RFC 4122 UUID to a Guid.
func GuidFromUUID(u uuid.UUID) Guid {
	var g Guid
	g.Data1 = binary.BigEndian.Uint32(u[0:4])
	g.Data2 = binary.BigEndian.Uint16(u[4:6])
	g.Data3 = binary.BigEndian.Uint16(u[6:8])
	copy(g.Data4[:], u[8:16])
	return g
}

// RandomGuid returns a random Guid. Do not use for security-critical
// entropy.
func RandomGuid() Guid {
	return GuidFromUUID(uuid.New())
}

// UUID converts the Guid to an RFC 4122 UUID.
func (g Guid) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[0:4], g.Data1)
	binary.BigEndian.PutUint16(u[4:6], g.Data2)
	binary.BigEndian.PutUint16(u[6:8], g.Data3)
	copy(u[8:16], g.Data4[:])
	return u
}

// Equal reports whether two Guids match field by field.
func (g Guid) Equal(o Guid) bool {
	return g == o
}

// String returns the canonical UUID rendering of the Guid.
func (g Guid) String() string {
	return g.UUID().String()
}

// NodeIDType identifies the active identifier arm of a NodeID.
type NodeIDType uint8

// NodeID identifier types. The zero value is Numeric, so a zeroed NodeID is
// the null NodeID. Wire-level encoding bytes are assigned by the binary
// codec, not here.
const (
	NodeIDTypeNumeric NodeIDType = iota
	NodeIDTypeString
	NodeIDTypeGUID
	NodeIDTypeByteString
)

// String returns the string representation of a NodeIDType.
func (t NodeIDType) String() string {
	switch t {
	case NodeIDTypeNumeric:
		return "Numeric"
	case NodeIDTypeString:
		return "String"
	case NodeIDTypeGUID:
		return "GUID"
	case NodeIDTypeByteString:
		return "ByteString"
	default:
		return "Unknown"
	}
}

// NodeID identifies a node in the address space of an OPC UA server. The
// identifier arms are flattened; IdentifierType names the active arm and
// must always match it.
type NodeID struct {
	NamespaceIndex uint16
	IdentifierType NodeIDType
	Numeric        uint32
	StringID       String
	GUID           Guid
	ByteString     ByteString
}

// NewNumericNodeID creates a new numeric NodeID.
func NewNumericNodeID(namespace uint16, id uint32) NodeID {
	return NodeID{
		NamespaceIndex: namespace,
		IdentifierType: NodeIDTypeNumeric,
		Numeric:        id,
		StringID:       NullString,
		ByteString:     ByteString{Length: -1},
	}
}

// NewStringNodeID creates a new string NodeID.
func NewStringNodeID(namespace uint16, id string) NodeID {
	return NodeID{
		NamespaceIndex: namespace,
		IdentifierType: NodeIDTypeString,
		StringID:       StringFrom(id),
		ByteString:     ByteString{Length: -1},
	}
}

// NewGUIDNodeID creates a new GUID NodeID.
func NewGUIDNodeID(namespace uint16, id Guid) NodeID {
	return NodeID{
		NamespaceIndex: namespace,
		IdentifierType: NodeIDTypeGUID,
		GUID:           id,
		StringID:       NullString,
		ByteString:     ByteString{Length: -1},
	}
}

// NewByteStringNodeID creates a new opaque NodeID.
func NewByteStringNodeID(namespace uint16, id []byte) NodeID {
	return NodeID{
		NamespaceIndex: namespace,
		IdentifierType: NodeIDTypeByteString,
		StringID:       NullString,
		ByteString:     ByteString{Length: int32(len(id)), Data: id},
	}
}

// Equal reports whether two NodeIDs have the same namespace, identifier
// type and active identifier arm.
func (n NodeID) Equal(o NodeID) bool {
	if n.NamespaceIndex != o.NamespaceIndex || n.IdentifierType != o.IdentifierType {
		return false
	}
	switch n.IdentifierType {
	case NodeIDTypeNumeric:
		return n.Numeric == o.Numeric
	case NodeIDTypeString:
		return n.StringID.Equal(o.StringID)
	case NodeIDTypeGUID:
		return n.GUID.Equal(o.GUID)
	case NodeIDTypeByteString:
		return n.ByteString.Equal(o.ByteString)
	default:
		return false
	}
}

// IsNull reports whether the NodeID is the null NodeID: numeric, namespace
// zero, identifier zero.
func (n NodeID) IsNull() bool {
	return n.IdentifierType == NodeIDTypeNumeric && n.NamespaceIndex == 0 && n.Numeric == 0
}

// String returns a "ns=<n>;<kind>=<id>" rendering of the NodeID.
func (n NodeID) String() string {
	switch n.IdentifierType {
	case NodeIDTypeNumeric:
		return fmt.Sprintf("ns=%d;i=%d", n.NamespaceIndex, n.Numeric)
	case NodeIDTypeString:
		return fmt.Sprintf("ns=%d;s=%s", n.NamespaceIndex, n.StringID)
	case NodeIDTypeGUID:
		return fmt.Sprintf("ns=%d;g=%s", n.NamespaceIndex, n.GUID)
	case NodeIDTypeByteString:
		return fmt.Sprintf("ns=%d;b=%x", n.NamespaceIndex, n.ByteString.Data)
	default:
		return fmt.Sprintf("ns=%d;?", n.NamespaceIndex)
	}
}

// ExpandedNodeID is a NodeID qualified with an optional namespace URI
// (absent per the String sentinel) and an optional server index (absent
// when zero).
type ExpandedNodeID struct {
	NodeID       NodeID
	NamespaceURI String
	ServerIndex  uint32
}

// NewExpandedNodeID wraps a NodeID with no namespace URI and server index 0.
func NewExpandedNodeID(n NodeID) ExpandedNodeID {
	return ExpandedNodeID{NodeID: n, NamespaceURI: NullString}
}

// IsNull reports whether the ExpandedNodeID carries no information at all.
func (e ExpandedNodeID) IsNull() bool {
	return e.NodeID.IsNull() && e.NamespaceURI.IsAbsent() && e.ServerIndex == 0
}

// Equal reports whether two ExpandedNodeIDs match in all parts.
func (e ExpandedNodeID) Equal(o ExpandedNodeID) bool {
	return e.NodeID.Equal(o.NodeID) && e.NamespaceURI.Equal(o.NamespaceURI) &&
		e.ServerIndex == o.ServerIndex
}

// QualifiedName is a name qualified by a namespace.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           String
}

// NewQualifiedName creates a QualifiedName from a literal.
func NewQualifiedName(namespace uint16, name string) QualifiedName {
	return QualifiedName{NamespaceIndex: namespace, Name: StringFrom(name)}
}

// Equal reports whether two QualifiedNames match.
func (q QualifiedName) Equal(o QualifiedName) bool {
	return q.NamespaceIndex == o.NamespaceIndex && q.Name.Equal(o.Name)
}

// LocalizedText is human readable text with an optional locale identifier.
type LocalizedText struct {
	Locale String
	Text   String
}

// NewLocalizedText creates a LocalizedText with an absent locale.
func NewLocalizedText(text string) LocalizedText {
	return LocalizedText{Locale: NullString, Text: StringFrom(text)}
}

// ExtensionObjectEncoding tags how an ExtensionObject body is carried.
type ExtensionObjectEncoding uint8

// ExtensionObject body encodings.
const (
	ExtensionObjectNoBody ExtensionObjectEncoding = iota
	ExtensionObjectByteStringBody
	ExtensionObjectXMLBody
)

// String returns the string representation of the encoding tag.
func (e ExtensionObjectEncoding) String() string {
	switch e {
	case ExtensionObjectNoBody:
		return "NoBody"
	case ExtensionObjectByteStringBody:
		return "ByteString"
	case ExtensionObjectXMLBody:
		return "XML"
	default:
		return "Unknown"
	}
}

// ExtensionObject carries a structured value that the receiver may not
// recognize, identified by the NodeID of its data type.
type ExtensionObject struct {
	TypeID   NodeID
	Encoding ExtensionObjectEncoding
	Body     ByteString
}

// DiagnosticInfoFlags mark which DiagnosticInfo fields are present.
type DiagnosticInfoFlags uint8

// DiagnosticInfo presence flags.
const (
	DiagnosticInfoHasSymbolicID DiagnosticInfoFlags = 1 << iota
	DiagnosticInfoHasNamespaceURI
	DiagnosticInfoHasLocalizedText
	DiagnosticInfoHasLocale
	DiagnosticInfoHasAdditionalInfo
	DiagnosticInfoHasInnerStatusCode
	DiagnosticInfoHasInnerDiagnosticInfo
)

// DiagnosticInfo contains detailed error and diagnostic information
// associated with a StatusCode. Fields are meaningful only when the
// corresponding flag is set.
type DiagnosticInfo struct {
	Flags               DiagnosticInfoFlags
	SymbolicID          int32
	NamespaceURI        int32
	LocalizedText       int32
	Locale              int32
	AdditionalInfo      String
	InnerStatusCode     StatusCode
	InnerDiagnosticInfo *DiagnosticInfo
}

// Has reports whether the given presence flags are all set.
func (d *DiagnosticInfo) Has(flags DiagnosticInfoFlags) bool {
	return d.Flags&flags == flags
}
