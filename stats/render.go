// Copyright 2025 Zintix Labs
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

package stats

import (
	"encoding/json"
	"io"
	"slices"
	"strings"

	"github.com/zintix-labs/lottolab/errs"
	"gopkg.in/yaml.v3"
)

// Format 報表輸出格式
type Format uint8

const (
	FormatTable Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "table"
}

// ParseFormat 接受 table / json / yaml（yml），不分大小寫；空字串為 table。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatTable, errs.NewWarn("unknown report format: " + s)
}

// Tabler 可輸出成純文字表格的報表
type Tabler interface {
	Table() string
}

// Render 依格式寫出 v。table 格式要求 v 實作 Tabler。
func Render(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(v)
	case FormatYAML:
		return writeYAML(w, v)
	}
	t, ok := v.(Tabler)
	if !ok {
		return errs.Fatalf("%T cannot be rendered as table", v)
	}
	_, err := io.WriteString(w, t.Table())
	return err
}

// RoundReportRender 給 RoundReport.WriteWith 使用。
type RoundReportRender interface {
	Write(w io.Writer, r *RoundReport) error
}

func (f Format) Write(w io.Writer, r *RoundReport) error {
	return Render(w, f, r)
}

func NewRoundReportRender(format string) (RoundReportRender, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// writeYAML 最內層的一維陣列（命中數分布等）輸出成 [a, b, c]，其餘維持展開。
func writeYAML(w io.Writer, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return errs.Wrap(err, "yaml encode failed")
	}
	flowLeafSequences(&node)
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func flowLeafSequences(n *yaml.Node) {
	for _, c := range n.Content {
		flowLeafSequences(c)
	}
	if n.Kind != yaml.SequenceNode {
		return
	}
	nested := slices.ContainsFunc(n.Content, func(c *yaml.Node) bool {
		return c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode
	})
	if !nested {
		n.Style = yaml.FlowStyle
	}
}
