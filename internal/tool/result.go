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

package tool

// Result 所有工具与编排终态统一使用的信封（ToolCallResult）
type Result struct {
	Success   bool       `json:"success"`
	Data      ResultData `json:"data"`
	Message   string     `json:"message"`
	ToolName  string     `json:"toolName"`
	Timestamp string     `json:"timestamp"`
	Error     string     `json:"error,omitempty"`
}

// ResultData 结果载荷
type ResultData struct {
	Result  any `json:"result"`
	Details any `json:"details,omitempty"`
}

// Success 构造成功结果
func Success(toolName, message string, result, details any) Result {
	return Result{
		Success:   true,
		Data:      ResultData{Result: result, Details: details},
		Message:   message,
		ToolName:  toolName,
		Timestamp: Now(),
	}
}

// Failure 构造失败结果；err 为空时 Error 字段省略
func Failure(toolName, message string, details any, err error) Result {
	r := Result{
		Success:   false,
		Data:      ResultData{Result: nil, Details: details},
		Message:   message,
		ToolName:  toolName,
		Timestamp: Now(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// ErrorText 返回失败信息，Error 为空时退回 Message
func (r Result) ErrorText() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}
