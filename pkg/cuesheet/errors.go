package cuesheet

import "errors"

var (
	// ErrMalformed CUE 结构不合法：缺少必需元素、行无法拆分、数字或时间码错误等
	ErrMalformed = errors.New("malformed cuesheet")

	// ErrMissingIndex 切割策略需要的索引点不存在
	ErrMissingIndex = errors.New("missing index")
)
