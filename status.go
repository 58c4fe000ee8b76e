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
	"fmt"
)

// StatusCode is a numeric identifier for an error or condition associated
// with a value or an operation. It is the single error domain of the data
// layer: every engine operation reports failure as a StatusCode value.
type StatusCode uint32

// StatusCode severity levels.
const (
	StatusSeverityGood      uint32 = 0x00000000
	StatusSeverityUncertain uint32 = 0x40000000
	StatusSeverityBad       uint32 = 0x80000000
	StatusSeverityMask      uint32 = 0xC0000000
)

// Status codes raised or reserved by the data layer.
const (
	StatusGood               StatusCode = 0x00000000
	StatusBadUnexpectedError StatusCode = 0x80010000
	StatusBadInternalError   StatusCode = 0x80020000

	// StatusBadOutOfMemory reports an allocation failure at any recursion
	// depth; everything allocated by the failed operation has been rolled
	// back by the time it is returned.
	StatusBadOutOfMemory StatusCode = 0x80030000

	// StatusBadEncodingError and StatusBadDecodingError are reserved for
	// the external binary codec; the data layer never raises them.
	StatusBadEncodingError          StatusCode = 0x80060000
	StatusBadDecodingError          StatusCode = 0x80070000
	StatusBadEncodingLimitsExceeded StatusCode = 0x80080000

	StatusBadDataTypeIdUnknown StatusCode = 0x80110000

	// StatusBadOutOfRange reports an array or string size above the global
	// maximum, or a negative length misused as a present value.
	StatusBadOutOfRange StatusCode = 0x803C0000

	StatusBadNotSupported   StatusCode = 0x803D0000
	StatusBadNotFound       StatusCode = 0x803E0000
	StatusBadNotImplemented StatusCode = 0x80400000
	StatusBadTypeMismatch   StatusCode = 0x80740000

	StatusBadInvalidArgument StatusCode = 0x80AB0000

	// StatusBadInvalidState reports a storage-mode misuse: copying a
	// source-backed Variant, or writing through borrowed data.
	StatusBadInvalidState StatusCode = 0x80AF0000

	StatusBadNoDataAvailable  StatusCode = 0x80B10000
	StatusBadTooManyArguments StatusCode = 0x80E50000
)

// statusCodeInfo contains name and description for a status code.
type statusCodeInfo struct {
	name        string
	description string
}

// statusCodeMap maps status codes to their info.
var statusCodeMap = map[StatusCode]statusCodeInfo{
	StatusGood:                      {"Good", "The operation completed successfully"},
	StatusBadUnexpectedError:        {"BadUnexpectedError", "An unexpected error occurred"},
	StatusBadInternalError:          {"BadInternalError", "An internal error occurred"},
	StatusBadOutOfMemory:            {"BadOutOfMemory", "Not enough memory to complete the operation"},
	StatusBadEncodingError:          {"BadEncodingError", "Encoding halted because of invalid data"},
	StatusBadDecodingError:          {"BadDecodingError", "Decoding halted because of invalid data"},
	StatusBadEncodingLimitsExceeded: {"BadEncodingLimitsExceeded", "The message encoding/decoding limits have been exceeded"},
	StatusBadDataTypeIdUnknown:      {"BadDataTypeIdUnknown", "The data type is not described by any registered descriptor"},
	StatusBadOutOfRange:             {"BadOutOfRange", "The value was out of range"},
	StatusBadNotSupported:           {"BadNotSupported", "The requested operation is not supported"},
	StatusBadNotFound:               {"BadNotFound", "A requested item was not found"},
	StatusBadNotImplemented:         {"BadNotImplemented", "Requested operation is not implemented"},
	StatusBadTypeMismatch:           {"BadTypeMismatch", "The value provided does not match the expected data type"},
	StatusBadInvalidArgument:        {"BadInvalidArgument", "One or more arguments are invalid"},
	StatusBadInvalidState:           {"BadInvalidState", "The operation cannot be completed in the value's current storage state"},
	StatusBadNoDataAvailable:        {"BadNoDataAvailable", "No data is currently available"},
	StatusBadTooManyArguments:       {"BadTooManyArguments", "Too many arguments were provided"},
}

// String returns the symbolic name of the status code.
func (s StatusCode) String() string {
	if info, ok := statusCodeMap[s]; ok {
		return info.name
	}
	return fmt.Sprintf("StatusCode(0x%08X)", uint32(s))
}

// Description returns a human-readable description of the status code.
func (s StatusCode) Description() string {
	if info, ok := statusCodeMap[s]; ok {
		return info.description
	}
	switch {
	case s.IsGood():
		return "The operation completed successfully"
	case s.IsUncertain():
		return "The operation completed with uncertain result"
	case s.IsBad():
		return "The operation failed"
	default:
		return "Unknown status"
	}
}

// Error implements the error interface. StatusGood is still a valid error
// value; operations return nil on success instead.
func (s StatusCode) Error() string {
	if info, ok := statusCodeMap[s]; ok {
		return fmt.Sprintf("%s (0x%08X): %s", info.name, uint32(s), info.description)
	}
	return fmt.Sprintf("StatusCode 0x%08X", uint32(s))
}

// IsGood returns true if the status code indicates success.
func (s StatusCode) IsGood() bool {
	return (uint32(s) & StatusSeverityMask) == StatusSeverityGood
}

// IsUncertain returns true if the status code indicates uncertainty.
func (s StatusCode) IsUncertain() bool {
	return (uint32(s) & StatusSeverityMask) == StatusSeverityUncertain
}

// IsBad returns true if the status code indicates failure.
func (s StatusCode) IsBad() bool {
	return (uint32(s) & StatusSeverityMask) == StatusSeverityBad
}

// IsStatusCode checks whether err is (or wraps) the given status code.
func IsStatusCode(err error, code StatusCode) bool {
	var sc StatusCode
	if errors.As(err, &sc) {
		return sc == code
	}
	return false
}

// StatusOf extracts the StatusCode from an error, falling back to
// StatusBadInternalError for foreign errors and StatusGood for nil.
func StatusOf(err error) StatusCode {
	if err == nil {
		return StatusGood
	}
	var sc StatusCode
	if errors.As(err, &sc) {
		return sc
	}
	return StatusBadInternalError
}
