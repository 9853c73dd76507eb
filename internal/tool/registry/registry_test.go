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

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"toolbridge/internal/tool"
	pkgerrors "toolbridge/pkg/errors"
)

type mockTool struct {
	name, desc string
}

func (m mockTool) Name() string        { return m.name }
func (m mockTool) Description() string { return m.desc }
func (m mockTool) Schema() tool.Schema {
	return tool.Schema{Type: "object", Properties: map[string]tool.SchemaProperty{"x": {Type: "string"}}}
}
func (m mockTool) Execute(ctx context.Context, input map[string]any) (tool.Result, error) {
	return tool.Success(m.name, "ok", input["x"], nil), nil
}

func TestRegistry_Register_Get_List(t *testing.T) {
	r := New()
	r.MustRegister(mockTool{name: "tool1", desc: "desc1"}, mockTool{name: "tool2", desc: "desc2"})
	got, ok := r.Get("tool1")
	if !ok || got.Name() != "tool1" {
		t.Errorf("Get tool1: ok=%v got=%v", ok, got)
	}
	if _, ok = r.Get("missing"); ok {
		t.Error("Get missing should be false")
	}
	list := r.List()
	if len(list) != 2 || list[0].Name() != "tool1" || list[1].Name() != "tool2" {
		t.Errorf("List should keep registration order: %v", list)
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	r := New()
	if err := r.Register(mockTool{name: "sum"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(mockTool{name: "sum"}); err == nil {
		t.Fatal("duplicate Register should fail")
	}
}

func TestRegistry_Alias(t *testing.T) {
	r := New()
	r.MustRegister(mockTool{name: "execute_raw_query"})
	if err := r.RegisterAlias("executeRawQuery", "execute_raw_query"); err != nil {
		t.Fatalf("RegisterAlias: %v", err)
	}
	got, ok := r.Get("executeRawQuery")
	if !ok || got.Name() != "execute_raw_query" {
		t.Errorf("alias lookup: ok=%v got=%v", ok, got)
	}
	if len(r.Describe()) != 1 {
		t.Errorf("alias must not appear in manifest: %v", r.Describe())
	}
	if err := r.RegisterAlias("x", "nope"); err == nil {
		t.Error("alias to unregistered tool should fail")
	}
	if err := r.RegisterAlias("execute_raw_query", "execute_raw_query"); err == nil {
		t.Error("alias shadowing a tool should fail")
	}
}

func TestRegistry_Invoke(t *testing.T) {
	r := New()
	r.MustRegister(mockTool{name: "echo"})
	res, err := r.Invoke(context.Background(), "echo", map[string]any{"x": "hi"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !res.Success || res.Data.Result != "hi" {
		t.Errorf("Invoke result: %+v", res)
	}
	_, err = r.Invoke(context.Background(), "nope", nil)
	if !errors.Is(err, pkgerrors.ErrUnknownTool) {
		t.Errorf("Invoke unknown: got %v, want ErrUnknownTool", err)
	}
}

func TestRegistry_SchemasForLLM(t *testing.T) {
	r := New()
	r.MustRegister(mockTool{name: "t1", desc: "d1"})
	data, err := r.SchemasForLLM()
	if err != nil {
		t.Fatalf("SchemasForLLM: %v", err)
	}
	var list []tool.Descriptor
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 1 || list[0].Name != "t1" || list[0].Description != "d1" || list[0].Parameters.Type != "object" {
		t.Errorf("SchemasForLLM: %+v", list)
	}
}
