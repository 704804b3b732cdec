// Package correlation 在调用链中携带一次逻辑操作的 correlation ID
// ID 只存在于 context.Context，不落任何包级状态；
// 嵌套作用域返回外层 context 即自动恢复外层 ID。
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// ID 串联同一逻辑操作全部日志记录的不透明标识
// 只存在于进程内存中。
type ID string

func (id ID) String() string { return string(id) }

// New 生成一个 128 位随机 ID
func New() ID {
	return ID(uuid.NewString())
}

// Adopt 原样采用外部提供的标识，例如入站请求头里带来的
func Adopt(s string) ID {
	return ID(s)
}

type ctxKey int

const (
	idKey ctxKey = iota
	spanKey
)

// WithID 返回携带 id 的 context
// 嵌套调用只在自己的子树内遮蔽外层 ID。
func WithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, idKey, id)
}

// FromContext 取出 ctx 携带的 correlation ID（如果有）
func FromContext(ctx context.Context) (ID, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(idKey).(ID)
	return id, ok && id != ""
}

// WithSpan 返回携带当前操作子树 span 名称的 context
func WithSpan(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, spanKey, name)
}

// SpanFromContext 取出 ctx 携带的 span 名称（如果有）
func SpanFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	name, ok := ctx.Value(spanKey).(string)
	return name, ok && name != ""
}

// Run 在装入 id 的派生 context 中执行 fn
// 外层 context 不受影响：Run 返回（包括 panic 逃逸）后
// 先前的 ID 立即重新生效。
func Run(ctx context.Context, id ID, fn func(context.Context) error) error {
	return fn(WithID(ctx, id))
}

// RunNew 生成新 ID，连同 span 名称一起装入 context 交给 fn
func RunNew(ctx context.Context, span string, fn func(context.Context, ID) error) error {
	id := New()
	ctx = WithSpan(WithID(ctx, id), span)
	return fn(ctx, id)
}
