package scanner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/yleoer/cuesplit/pkg/util"
)

// CueScanner 在输入目录中查找待处理的 CUE 文件
type CueScanner struct {
	logger *log.Logger
}

// NewCueScanner 创建一个新的 CueScanner 实例
func NewCueScanner(logger *log.Logger) *CueScanner {
	return &CueScanner{logger: logger}
}

// FindCueSheets 返回 root 下每个一级子目录中直接包含的 .cue 文件，root 本身和更深层的目录不查找
func (s *CueScanner) FindCueSheets(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", root, err)
	}
	var sheets []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		found, err := s.CueSheetsInDir(filepath.Join(root, entry.Name()))
		if err != nil {
			s.logger.Printf("ERROR: %v", err)
			continue
		}
		sheets = append(sheets, found...)
	}
	return sheets, nil
}

// CueSheetsInDir 返回目录中直接包含的 .cue 文件，按名称排序
func (s *CueScanner) CueSheetsInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var sheets []string
	for _, entry := range entries {
		if entry.IsDir() || !util.IsCueSheet(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		s.logger.Printf("  Found CUE file: %s", path)
		sheets = append(sheets, path)
	}
	sort.Strings(sheets)
	return sheets, nil
}
