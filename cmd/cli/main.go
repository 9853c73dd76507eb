package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const version = "toolbridge cli 0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stdout)
		return 0
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintln(stdout, version)
	case "health":
		h, err := getHealth()
		if err != nil {
			fmt.Fprintf(stderr, "健康检查失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, h["status"])
	case "tools":
		tools, err := listTools()
		if err != nil {
			fmt.Fprintf(stderr, "获取工具清单失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, prettyJSON(tools))
	case "query":
		if len(args) < 1 {
			fmt.Fprintln(stderr, "Usage: toolbridge query <prompt>")
			return 1
		}
		out, err := query(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(stderr, "查询失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, prettyJSON(out))
		if ok, _ := out["success"].(bool); !ok {
			return 2
		}
	case "ask":
		if len(args) < 1 {
			fmt.Fprintln(stderr, "Usage: toolbridge ask <prompt>")
			return 1
		}
		text, err := ask(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(stderr, "请求失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, text)
	case "sum", "sub":
		if len(args) != 2 {
			fmt.Fprintf(stderr, "Usage: toolbridge %s <a> <b>\n", cmd)
			return 1
		}
		result, err := compute(cmd, args[0], args[1])
		if err != nil {
			fmt.Fprintf(stderr, "%s 失败: %v\n", cmd, err)
			return 1
		}
		fmt.Fprintln(stdout, strconv.FormatFloat(result, 'f', -1, 64))
	case "count":
		if len(args) != 1 {
			fmt.Fprintf(stderr, "Usage: toolbridge count <%s>\n", strings.Join(countTargets(), "|"))
			return 1
		}
		n, err := count(args[0])
		if err != nil {
			fmt.Fprintf(stderr, "计数失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, n)
	default:
		printUsage(stderr)
		return 1
	}
	return 0
}

func countTargets() []string {
	out := make([]string, 0, len(countPaths))
	for k := range countPaths {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: toolbridge <command> [args]")
	fmt.Fprintln(w, "  version          - 显示版本")
	fmt.Fprintln(w, "  health           - 健康检查")
	fmt.Fprintln(w, "  tools            - 列出工具清单")
	fmt.Fprintln(w, "  query <prompt>   - 编排查询（LLM 选择并调用工具，失败自动重试）")
	fmt.Fprintln(w, "  ask <prompt>     - 直接与 LLM 对话，不带工具")
	fmt.Fprintln(w, "  sum <a> <b>      - a + b")
	fmt.Fprintln(w, "  sub <a> <b>      - a - b")
	fmt.Fprintf(w, "  count <target>   - 计数：%s\n", strings.Join(countTargets(), ", "))
	fmt.Fprintln(w, "环境变量 TOOLBRIDGE_API_URL 指定 API 地址（默认 http://localhost:3000）")
}
