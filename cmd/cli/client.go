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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// countPaths count 子命令 → 计数接口
var countPaths = map[string]string{
	"emails":         "/api/metrics/emails/count",
	"unique-emails":  "/api/metrics/emails/unique/count",
	"rule-templates": "/api/metrics/rule-templates/count",
	"jobs":           "/api/metrics/jobs/count",
	"rule-details":   "/api/metrics/rule-details/count",
}

func apiBaseURL() string {
	if u := os.Getenv("TOOLBRIDGE_API_URL"); u != "" {
		return u
	}
	return "http://localhost:3000"
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(5*time.Minute).
		SetHeader("Content-Type", "application/json")
}

func getHealth() (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/health: %s", resp.String())
	}
	return out, nil
}

func listTools() ([]map[string]interface{}, error) {
	var out struct {
		Tools []map[string]interface{} `json:"tools"`
	}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/mcp/tools")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/mcp/tools: %s", resp.String())
	}
	return out.Tools, nil
}

func query(prompt string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetBody(map[string]string{"prompt": prompt}).
		SetResult(&out).
		Post("/api/mcp/query")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/mcp/query: %s", resp.String())
	}
	return out, nil
}

func ask(prompt string) (string, error) {
	resp, err := newClient().R().
		SetBody(map[string]string{"prompt": prompt}).
		Post("/api/mcp")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("POST /api/mcp: %s", resp.String())
	}
	return resp.String(), nil
}

func compute(op, a, b string) (float64, error) {
	var out struct {
		Result float64 `json:"result"`
	}
	resp, err := newClient().R().
		SetBody(map[string]string{"a": a, "b": b}).
		SetResult(&out).
		Post("/api/tools/" + op)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("POST /api/tools/%s: %s", op, resp.String())
	}
	return out.Result, nil
}

func count(what string) (int64, error) {
	path, ok := countPaths[what]
	if !ok {
		return 0, fmt.Errorf("unknown count target %q", what)
	}
	var out struct {
		Count int64 `json:"count"`
	}
	resp, err := newClient().R().
		SetResult(&out).
		Get(path)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("GET %s: %s", path, resp.String())
	}
	return out.Count, nil
}

func prettyJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
