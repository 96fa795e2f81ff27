package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
)

// FieldError 单个字段的校验失败原因
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError 请求校验失败，列出全部问题字段
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// errOrNil 无问题字段时返回 nil
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func newValidationError(field, reason string) *ValidationError {
	v := &ValidationError{}
	v.add(field, reason)
	return v
}

// parseDate 解析 YYYY-MM-DD，统一为 UTC 零点
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dto.DateFormat, value)
	if err != nil {
		return time.Time{}, newValidationError(field, fmt.Sprintf("日期格式应为 YYYY-MM-DD: %q", value))
	}
	return t, nil
}

// parseOptionalDate 空字符串返回 nil
func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDateRange 解析可选的起止日期并校验先后
func parseDateRange(start, end string) (*time.Time, *time.Time, error) {
	from, err := parseOptionalDate("start", start)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseOptionalDate("end", end)
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, newValidationError("end", "结束日期不能早于开始日期")
	}
	return from, to, nil
}
