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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/edgeo-scada/uatypes"
)

// typeSummary is the JSON shape of one descriptor.
type typeSummary struct {
	Index         uint16          `json:"index"`
	Name          string          `json:"name"`
	TypeID        string          `json:"typeId"`
	NamespaceZero bool            `json:"namespaceZero"`
	FixedSize     bool            `json:"fixedSize"`
	ZeroCopyable  bool            `json:"zeroCopyable"`
	MemSize       uint64          `json:"memSize"`
	Members       []memberSummary `json:"members,omitempty"`
}

type memberSummary struct {
	Name      string `json:"name"`
	TypeIndex uint16 `json:"typeIndex"`
	TypeName  string `json:"typeName"`
	IsArray   bool   `json:"isArray"`
	Padding   uint8  `json:"padding"`
	Offset    uint64 `json:"offset"`
}

func summarize(r *uatypes.Registry, t *uatypes.DataType) typeSummary {
	s := typeSummary{
		Index:         t.TypeIndex,
		Name:          t.Name,
		TypeID:        t.TypeID.String(),
		NamespaceZero: t.NamespaceZero,
		FixedSize:     t.FixedSize,
		ZeroCopyable:  t.ZeroCopyable,
		MemSize:       uint64(t.MemSize),
	}
	for _, m := range t.Members {
		s.Members = append(s.Members, memberSummary{
			Name:      m.Name,
			TypeIndex: m.MemberTypeIndex,
			TypeName:  memberTypeName(r, m),
			IsArray:   m.IsArray,
			Padding:   m.Padding,
			Offset:    uint64(m.Offset),
		})
	}
	return s
}

func memberTypeName(r *uatypes.Registry, m uatypes.DataTypeMember) string {
	if m.MemberTypeIndex == uatypes.InlineTypeIndex {
		return "(inline)"
	}
	if t, ok := r.ByIndex(m.MemberTypeIndex); ok {
		return t.Name
	}
	return "(unknown)"
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTypeText(s typeSummary) {
	fmt.Printf("%-3d %-16s %-14s size=%-3d fixed=%-5v zerocopy=%-5v\n",
		s.Index, s.Name, s.TypeID, s.MemSize, s.FixedSize, s.ZeroCopyable)
	for _, m := range s.Members {
		array := ""
		if m.IsArray {
			array = "[]"
		}
		fmt.Printf("    .%-18s %s%s (offset=%d, padding=%d)\n",
			m.Name, array, m.TypeName, m.Offset, m.Padding)
	}
}
