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
	"strconv"

	"github.com/edgeo-scada/uatypes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var describeCmd = &cobra.Command{
	Use:   "describe <name|index>",
	Short: "Describe a single type",
	Long: `Print the full descriptor of one type, looked up by name or index.

Examples:
  uatypes-cli describe NodeId
  uatypes-cli describe 22 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	r := uatypes.NewRegistry()

	t, ok := r.ByName(args[0])
	if !ok {
		if idx, err := strconv.ParseUint(args[0], 10, 16); err == nil {
			t, ok = r.ByIndex(uint16(idx))
		}
	}
	if !ok {
		return fmt.Errorf("unknown type %q", args[0])
	}

	if viper.GetString("output") == "json" {
		return printJSON(summarize(r, t))
	}
	printTypeText(summarize(r, t))
	return nil
}
