package errors

import (
	"context"
	"fmt"
	"runtime"

	"dbadapter/logging"
)

// Wrap 包装错误，添加错误码并以 Debug 级别记录调用位置
func Wrap(ctx context.Context, err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}

	_, file, line, _ := runtime.Caller(1)
	wrapped := WrapError(err, code, msg)

	logging.GetLogger().Debug(ctx, "错误包装: "+msg,
		logging.String("error_code", string(code)),
		logging.String("location", fmt.Sprintf("%s:%d", file, line)),
	)

	return wrapped
}

// WrapWithLog 包装错误并记录警告日志
func WrapWithLog(ctx context.Context, err error, code ErrorCode, msg string, fields ...logging.Field) error {
	if err == nil {
		return nil
	}

	_, file, line, _ := runtime.Caller(1)
	wrapped := WrapError(err, code, msg)

	allFields := append([]logging.Field{
		logging.Error(err),
		logging.String("error_code", string(code)),
		logging.String("location", fmt.Sprintf("%s:%d", file, line)),
	}, fields...)

	logging.GetLogger().Warn(ctx, msg, allFields...)

	return wrapped
}

// WrapLoadError 包装扩展单元加载失败，附带单元标识
func WrapLoadError(err error, unitID string) error {
	if err == nil {
		return nil
	}
	return WrapError(err, ErrCodeExtensionLoad, "加载扩展单元失败: "+unitID).
		WithContext("unit", unitID)
}

// WrapDatabaseError 包装数据库错误
func WrapDatabaseError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	return WrapWithLog(ctx, err, ErrCodeDatabase,
		fmt.Sprintf("数据库操作失败: %s", operation),
		logging.String("operation", operation),
	)
}
