// Package errors 提供统一错误辅助与工具编排的错误分类，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

// 通用哨兵错误
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidArg = errors.New("invalid argument")
)

// 工具编排错误分类
var (
	// ErrUnknownTool LLM 请求了注册表中不存在的工具（可重试）
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments 工具参数未通过 Schema 校验（与 ErrUnknownTool 同级，可重试）
	ErrInvalidArguments = errors.New("invalid tool arguments")
	// ErrBackendUnreachable 聊天后端无法连通
	ErrBackendUnreachable = errors.New("chat backend unreachable")
	// ErrBackendError 聊天后端返回非 2xx
	ErrBackendError = errors.New("chat backend error")
)

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is 转发 errors.Is，便于调用方只引入本包
func Is(err, target error) bool { return errors.Is(err, target) }

// As 转发 errors.As
func As(err error, target any) bool { return errors.As(err, target) }

// New 转发 errors.New
func New(text string) error { return errors.New(text) }
