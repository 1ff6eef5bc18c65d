package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sqliteStore 是 CueStore 接口的 SQLite 实现
type sqliteStore struct {
	db     *sql.DB
	logger *log.Logger
}

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS processed_cuesheets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		mod_time INTEGER NOT NULL DEFAULT 0,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

// NewSQLiteStore 初始化 SQLite 数据库并返回 CueStore 接口实例
func NewSQLiteStore(dataSourceName string, logger *log.Logger) (CueStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// 监听模式下多个 goroutine 共用一个连接即可
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create processed_cuesheets table: %w", err)
	}
	logger.Printf("SQLite database initialized at: %s", dataSourceName)
	return &sqliteStore{db: db, logger: logger}, nil
}

// Close 关闭数据库连接
func (s *sqliteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.logger.Println("SQLite database connection closed.")
		return err
	}
	return nil
}

// MarkProcessed 将 CUE 路径标记为已处理，重复标记会更新修改时间与处理时间
func (s *sqliteStore) MarkProcessed(cuePath string, modTime time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO processed_cuesheets (path, mod_time, processed_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET mod_time = excluded.mod_time, processed_at = excluded.processed_at`,
		cuePath, modTime.UnixNano(), time.Now(),
	)
	if err != nil {
		s.logger.Printf("ERROR: Failed to mark cuesheet %s as processed: %v", cuePath, err)
		return fmt.Errorf("failed to mark %s as processed: %w", cuePath, err)
	}
	s.logger.Printf("Cuesheet %s marked as processed.", cuePath)
	return nil
}

// IsProcessed 检查 CUE 路径是否已处理，且处理后文件没有再被修改
func (s *sqliteStore) IsProcessed(cuePath string, modTime time.Time) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM processed_cuesheets WHERE path = ? AND mod_time = ?",
		cuePath, modTime.UnixNano()).Scan(&count)
	if err != nil {
		s.logger.Printf("ERROR: Failed to check if cuesheet %s is processed: %v", cuePath, err)
		return false, fmt.Errorf("failed to check processed status for %s: %w", cuePath, err)
	}
	return count > 0, nil
}
