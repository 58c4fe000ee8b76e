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

// DataValueFlags mark which DataValue fields carry a meaningful value.
// Absent fields are skipped by the binary codec and must be ignored by
// consumers.
type DataValueFlags uint8

// DataValue presence flags.
const (
	DataValueHasValue DataValueFlags = 1 << iota
	DataValueHasStatus
	DataValueHasSourceTimestamp
	DataValueHasServerTimestamp
	DataValueHasSourcePicoseconds
	DataValueHasServerPicoseconds
)

// DataValue is a Variant qualified with a status and the source and server
// timestamps of the reading. Every field besides Flags is meaningful only
// when its presence flag is set.
type DataValue struct {
	Flags             DataValueFlags
	Value             Variant
	Status            StatusCode
	SourceTimestamp   DateTime
	SourcePicoseconds uint16
	ServerTimestamp   DateTime
	ServerPicoseconds uint16
}

// Has reports whether all the given presence flags are set.
func (d *DataValue) Has(flags DataValueFlags) bool {
	return d.Flags&flags == flags
}

// SetStatus records a status and marks it present.
func (d *DataValue) SetStatus(code StatusCode) {
	d.Status = code
	d.Flags |= DataValueHasStatus
}

// SetSourceTimestamp records the source timestamp and marks it present.
func (d *DataValue) SetSourceTimestamp(ts DateTime) {
	d.SourceTimestamp = ts
	d.Flags |= DataValueHasSourceTimestamp
}

// SetServerTimestamp records the server timestamp and marks it present.
func (d *DataValue) SetServerTimestamp(ts DateTime) {
	d.ServerTimestamp = ts
	d.Flags |= DataValueHasServerTimestamp
}

// SetSourcePicoseconds records the sub-100ns part of the source timestamp.
func (d *DataValue) SetSourcePicoseconds(ps uint16) {
	d.SourcePicoseconds = ps
	d.Flags |= DataValueHasSourcePicoseconds
}

// SetServerPicoseconds records the sub-100ns part of the server timestamp.
func (d *DataValue) SetServerPicoseconds(ps uint16) {
	d.ServerPicoseconds = ps
	d.Flags |= DataValueHasServerPicoseconds
}

// MarkValuePresent flags the Variant payload as meaningful. The payload
// itself is managed through the Value field's own API.
func (d *DataValue) MarkValuePresent() {
	d.Flags |= DataValueHasValue
}
