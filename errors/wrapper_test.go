package errors

import (
	"context"
	stdErrors "errors"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWrap 测试基本错误包装
func TestWrap(t *testing.T) {
	ctx := context.Background()
	originalErr := stdErrors.New("原始错误")

	wrapped := Wrap(ctx, originalErr, ErrCodeInternal, "包装消息")
	require.Error(t, wrapped)

	assert.True(t, stdErrors.Is(wrapped, originalErr))
	assert.Equal(t, ErrCodeInternal, GetErrorCode(wrapped))
	assert.Contains(t, wrapped.Error(), "包装消息")
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(context.Background(), nil, ErrCodeInternal, "消息"))
	assert.Nil(t, WrapWithLog(context.Background(), nil, ErrCodeInternal, "消息"))
	assert.Nil(t, WrapLoadError(nil, "unit"))
	assert.Nil(t, WrapDatabaseError(context.Background(), nil, "select"))
}

// TestWrapLoadError 加载错误携带单元标识并保留原始原因
func TestWrapLoadError(t *testing.T) {
	err := WrapLoadError(fs.ErrPermission, "/opt/ext/dbadapter/discover.yaml")
	require.Error(t, err)

	assert.True(t, IsExtensionLoad(err))
	assert.True(t, stdErrors.Is(err, fs.ErrPermission))
	assert.True(t, stdErrors.Is(err, ErrExtensionLoad))
	assert.False(t, stdErrors.Is(err, ErrDatabase))

	var appErr *AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, "/opt/ext/dbadapter/discover.yaml", appErr.Details()["unit"])
}

func TestWrapDatabaseError(t *testing.T) {
	err := WrapDatabaseError(context.Background(), stdErrors.New("connection refused"), "ping")
	require.Error(t, err)
	assert.Equal(t, ErrCodeDatabase, GetErrorCode(err))
	assert.Contains(t, err.Error(), "ping")
}

func TestHasErrorCode_Nested(t *testing.T) {
	inner := WrapError(stdErrors.New("missing"), ErrCodeDependency, "依赖缺失")
	outer := WrapError(inner, ErrCodeExtensionLoad, "加载失败")

	assert.True(t, IsErrorCode(outer, ErrCodeExtensionLoad))
	assert.False(t, IsErrorCode(outer, ErrCodeDependency))
	assert.True(t, HasErrorCode(outer, ErrCodeDependency))
	assert.False(t, HasErrorCode(outer, ErrCodeNetwork))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
	assert.Equal(t, ErrCodeInternal, GetErrorCode(stdErrors.New("plain")))
	assert.Equal(t, ErrCodeNetwork, GetErrorCode(NewError(ErrCodeNetwork, "x")))
}

// TestWithContext WithContext 不修改原错误
func TestWithContext(t *testing.T) {
	base := NewError(ErrCodeManifest, "bad manifest")
	withCtx := base.WithContext("line", 3)

	assert.Equal(t, 3, withCtx.Details()["line"])
	assert.NotContains(t, base.Details(), "line")
	assert.Equal(t, base.Code(), withCtx.Code())
}

func TestConcurrentWrap(t *testing.T) {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := Wrap(ctx, stdErrors.New("x"), ErrCodeInternal, "并发")
			assert.Error(t, err)
		}()
	}
	wg.Wait()
}
