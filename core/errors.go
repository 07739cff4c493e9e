package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Model 错误：UNAVAILABLE（模型加载或推理失败，推荐能力不可用）
//   - Fact 错误：INVALID_INPUT（畸形事实记录）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "model", "fact"）
	Cause   error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Cause }

// Is 按 Module + Code 判等，使 errors.Is(err, ErrModelUnavailable) 对带 Cause 的副本同样成立。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// WithCause 返回附带底层错误的副本。
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 服务不可用
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleFact      = "fact"      // 事实数据模块
	ModuleAggregate = "aggregate" // 聚合模块
	ModuleModel     = "model"     // 打分模型模块
)

var (
	// ErrModelUnavailable 表示打分模型加载失败或推理失败，推荐能力不可用。
	ErrModelUnavailable = NewDomainError(ModuleModel, ErrorCodeUnavailable, "model: recommendation model unavailable")

	// ErrFactsUnavailable 表示事实数据加载失败。
	ErrFactsUnavailable = NewDomainError(ModuleFact, ErrorCodeUnavailable, "fact: fact snapshot unavailable")

	// ErrInvalidFact 表示事实记录缺失必填字段或取值非法。
	ErrInvalidFact = NewDomainError(ModuleFact, ErrorCodeInvalidInput, "fact: malformed record")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsModelUnavailable 检查错误是否为模型不可用
func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}
