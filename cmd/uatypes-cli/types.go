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
	"fmt"

	"github.com/edgeo-scada/uatypes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the built-in type table",
	Long: `List every descriptor in a freshly seeded registry, in table order.

Examples:
  uatypes-cli types
  uatypes-cli types -o json`,
	RunE: runTypes,
}

func runTypes(cmd *cobra.Command, args []string) error {
	r := uatypes.NewRegistry()

	if viper.GetString("output") == "json" {
		out := make([]typeSummary, 0, r.Len())
		for _, t := range r.Types() {
			out = append(out, summarize(r, t))
		}
		return printJSON(out)
	}

	fmt.Printf("registry: %d types\n", r.Len())
	for _, t := range r.Types() {
		printTypeText(summarize(r, t))
	}
	return nil
}
