package gee

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingData = errors.New("body must contain only one JSON value")
	ErrBodyTooLarge = errors.New("request body too large")
)

// ShouldBindJSON 只解析 json，不写响应。
// 未知字段报错；请求体被 http.MaxBytesReader 截断时返回 ErrBodyTooLarge。
func (c *Context) ShouldBindJSON(dst any) error {
	if c.Req.Body == nil {
		return ErrEmptyBody
	}
	decoder := json.NewDecoder(c.Req.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return bindError(err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err != nil {
			if be := bindError(err); errors.Is(be, ErrBodyTooLarge) {
				return be
			}
		}
		return ErrTrailingData
	}
	return nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return ErrBodyTooLarge
	case errors.Is(err, io.EOF):
		return ErrEmptyBody
	}
	return err
}

// BindJSON 解析失败时直接写错误响应：超限 413，其它 400。
func (c *Context) BindJSON(dst any) error {
	err := c.ShouldBindJSON(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBodyTooLarge):
		c.AbortWithError(http.StatusRequestEntityTooLarge, ErrBodyTooLarge.Error())
	default:
		c.AbortWithError(http.StatusBadRequest, "Invalid json")
	}
	return err
}

// MaxBody 限制请求体大小，配合 BindJSON 使用。
func MaxBody(n int64) HandlerFunc {
	return func(c *Context) {
		if c.Req.Body != nil {
			c.Req.Body = http.MaxBytesReader(c.Writer, c.Req.Body, n)
		}
		c.Next()
	}
}
