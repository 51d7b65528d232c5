package service

import "errors"

// 业务哨兵错误：handler 层据此映射 HTTP 状态码.
var (
	// ErrNotFound 目标资源不存在或已删除.
	ErrNotFound = errors.New("resource not found")
	// ErrDenied 调用者无权访问目标资源.
	ErrDenied = errors.New("access denied")
	// ErrShareExpired 分享链接已过期；过期凭据不再回退到公开相册判定.
	ErrShareExpired = errors.New("share link expired")
	// ErrShareExhausted 分享链接的下载配额已耗尽.
	ErrShareExhausted = errors.New("share link download limit reached")
	// ErrAliasTaken 别名已被其他分享链接占用.
	ErrAliasTaken = errors.New("alias already taken")
	// ErrSlugTaken 相册 slug 在该摄影师下已存在.
	ErrSlugTaken = errors.New("gallery slug already taken")
)
