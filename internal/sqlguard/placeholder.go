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

package sqlguard

import (
	"strconv"
	"strings"
)

// Placeholders SQL 文本中扫描到的位置参数标记
type Placeholders struct {
	// MaxIndex $n 标记中的最大 n，无 $n 时为 0
	MaxIndex int
	// Dollar $n 标记个数（同一 n 可出现多次）
	Dollar int
	// Question 旧式 ? 标记在 SQL 中的字节偏移，按出现顺序
	Question []int
}

// None 报告是否没有任何占位符
func (p Placeholders) None() bool {
	return p.Dollar == 0 && len(p.Question) == 0
}

// Scan 扫描 SQL 中的占位符；字符串字面量、带引号标识符、dollar-quoted 字符串与注释中的内容不计入。
// Postgres 的 jsonb 运算符 ?| 与 ?& 不视为占位符；操作数之后、紧跟字符串字面量的 ?（如 data ? 'k'）视为 jsonb 键存在运算符。
func Scan(sql string) Placeholders {
	var p Placeholders
	n := len(sql)
	for i := 0; i < n; i++ {
		c := sql[i]
		switch {
		case c == '\'':
			escapes := i > 0 && (sql[i-1] == 'E' || sql[i-1] == 'e') && (i < 2 || !isIdentChar(sql[i-2]))
			i = skipQuoted(sql, i, '\'', escapes)
		case c == '"':
			i = skipQuoted(sql, i, '"', false)
		case c == '-' && i+1 < n && sql[i+1] == '-':
			if nl := strings.IndexByte(sql[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = n
			}
		case c == '/' && i+1 < n && sql[i+1] == '*':
			if end := strings.Index(sql[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = n
			}
		case c == '$':
			if i > 0 && isIdentChar(sql[i-1]) {
				continue
			}
			j := i + 1
			for j < n && isDigit(sql[j]) {
				j++
			}
			if j > i+1 {
				idx, err := strconv.Atoi(sql[i+1 : j])
				if err == nil && idx > 0 {
					p.Dollar++
					if idx > p.MaxIndex {
						p.MaxIndex = idx
					}
				}
				i = j - 1
				continue
			}
			if end, ok := skipDollarQuoted(sql, i); ok {
				i = end
			}
		case c == '?':
			if i+1 < n && (sql[i+1] == '|' || sql[i+1] == '&') {
				i++
				continue
			}
			if isKeyExistsOperator(sql, i) {
				continue
			}
			p.Question = append(p.Question, i)
		}
	}
	return p
}

// RewriteQuestionMarks 按出现顺序把 offsets 处的 ? 替换为 $1, $2, …
func RewriteQuestionMarks(sql string, offsets []int) string {
	if len(offsets) == 0 {
		return sql
	}
	var b strings.Builder
	b.Grow(len(sql) + len(offsets)*2)
	last := 0
	for k, off := range offsets {
		b.WriteString(sql[last:off])
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(k + 1))
		last = off + 1
	}
	b.WriteString(sql[last:])
	return b.String()
}

// skipQuoted 从 start 处的引号开始，返回闭合引号的下标；双写引号视为转义
func skipQuoted(sql string, start int, quote byte, backslashEscapes bool) int {
	n := len(sql)
	for i := start + 1; i < n; i++ {
		switch sql[i] {
		case '\\':
			if backslashEscapes {
				i++
			}
		case quote:
			if i+1 < n && sql[i+1] == quote {
				i++
				continue
			}
			return i
		}
	}
	return n
}

// skipDollarQuoted 处理 $$...$$ 与 $tag$...$tag$，返回结束标记最后一个字符的下标
func skipDollarQuoted(sql string, start int) (int, bool) {
	n := len(sql)
	j := start + 1
	for j < n && isIdentChar(sql[j]) {
		j++
	}
	if j >= n || sql[j] != '$' {
		return start, false
	}
	tag := sql[start : j+1]
	if end := strings.Index(sql[j+1:], tag); end >= 0 {
		return j + 1 + end + len(tag) - 1, true
	}
	return n, true
}

// isKeyExistsOperator 判断 i 处的 ? 是否为 jsonb 的 ? 运算符：左侧是操作数结尾，右侧是字符串字面量
func isKeyExistsOperator(sql string, i int) bool {
	l := i - 1
	for l >= 0 && isSpace(sql[l]) {
		l--
	}
	r := i + 1
	for r < len(sql) && isSpace(sql[r]) {
		r++
	}
	if l < 0 || r >= len(sql) || sql[r] != '\'' {
		return false
	}
	c := sql[l]
	return isIdentChar(c) || c == ')' || c == ']' || c == '"' || c == '\''
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
