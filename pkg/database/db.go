package database

import "time"

// CueStore 定义 CUE 处理状态存储接口。modTime 是 CUE 及其镜像文件中最新的修改时间，
// 文件被修改后同一路径会重新视为未处理
type CueStore interface {
	MarkProcessed(cuePath string, modTime time.Time) error        // 将 CUE 路径标记为已处理
	IsProcessed(cuePath string, modTime time.Time) (bool, error) // 检查 CUE 路径在该修改时间下是否已处理
	Close() error                                                // 关闭数据库连接
}
