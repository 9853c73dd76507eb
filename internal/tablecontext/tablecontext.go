// Copyright 2026 fanjia1024
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

// Package tablecontext 提供写入 system 消息的表结构描述文本
package tablecontext

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed contexts/*.sql
var contextFS embed.FS

// Set 表名到描述文本的映射；构造后只读
type Set map[string]string

// Defaults 返回内置的表上下文（contexts/<table>.sql）
func Defaults() Set {
	s := Set{}
	entries, err := fs.ReadDir(contextFS, "contexts")
	if err != nil {
		return s
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		data, err := contextFS.ReadFile("contexts/" + name)
		if err != nil {
			continue
		}
		s[strings.TrimSuffix(name, ".sql")] = strings.TrimSpace(string(data))
	}
	return s
}

// Merge 返回新的 Set：overrides 覆盖或新增条目，空文本表示移除
func (s Set) Merge(overrides map[string]string) Set {
	out := make(Set, len(s)+len(overrides))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range overrides {
		v = strings.TrimSpace(v)
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Render 按 names 顺序拼接已知表的描述，未知表名跳过
func (s Set) Render(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if text, ok := s[n]; ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// Names 返回所有表名（排序）
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
