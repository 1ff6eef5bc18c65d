package scheduler

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/yleoer/cuesplit/pkg/config"
	"github.com/yleoer/cuesplit/pkg/database"
	"github.com/yleoer/cuesplit/pkg/processor"
	"github.com/yleoer/cuesplit/pkg/scanner"
)

// CueProcessor 处理单张 CUE
type CueProcessor interface {
	ProcessCueFile(ctx context.Context, cuePath, outputRoot string, opts processor.Options) (*processor.Result, error)
}

// Summary 是一次批量处理的统计
type Summary struct {
	Processed []string
	Skipped   []string
	Failed    map[string]error
}

// TaskScheduler 负责调度 CUE 的批量处理与监听处理
type TaskScheduler struct {
	cfg       *config.Config
	store     database.CueStore // 为空时不记录处理状态
	scanner   *scanner.CueScanner
	processor CueProcessor
	opts      processor.Options
	logger    *log.Logger

	scanMutex         sync.Mutex // 保护扫描过程
	pendingScans      map[string]*time.Timer
	pendingScansMutex sync.Mutex // 保护 pendingScans 和 closed
	closed            bool
	running           sync.WaitGroup
}

// NewTaskScheduler 创建一个新的 TaskScheduler 实例
func NewTaskScheduler(
	cfg *config.Config,
	store database.CueStore,
	cueScanner *scanner.CueScanner,
	cueProcessor CueProcessor,
	opts processor.Options,
	logger *log.Logger,
) *TaskScheduler {
	return &TaskScheduler{
		cfg:          cfg,
		store:        store,
		scanner:      cueScanner,
		processor:    cueProcessor,
		opts:         opts,
		logger:       logger,
		pendingScans: make(map[string]*time.Timer),
	}
}

// Batch 处理 root 下一级子目录中的所有 CUE。单张 CUE 失败不影响其他 CUE，
// 全部处理完后如有失败则返回错误
func (ts *TaskScheduler) Batch(ctx context.Context, root, outputRoot string) (*Summary, error) {
	return ts.batch(ctx, root, outputRoot, ts.cfg.SkipProcessed)
}

func (ts *TaskScheduler) batch(ctx context.Context, root, outputRoot string, skipProcessed bool) (*Summary, error) {
	ts.logger.Printf("Scanning %s for cuesheets...", root)
	sheets, err := ts.scanner.FindCueSheets(root)
	if err != nil {
		return nil, err
	}
	ts.logger.Printf("Found %d cuesheets.", len(sheets))

	summary := &Summary{Failed: make(map[string]error)}
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		skipped, err := ts.processSheet(ctx, sheet, outputRoot, skipProcessed)
		switch {
		case err != nil:
			ts.logger.Printf("ERROR: Error processing cuesheet %s: %v", sheet, err)
			summary.Failed[sheet] = err
		case skipped:
			summary.Skipped = append(summary.Skipped, sheet)
		default:
			summary.Processed = append(summary.Processed, sheet)
		}
	}

	ts.logger.Printf("Batch completed: %d processed, %d skipped, %d failed.",
		len(summary.Processed), len(summary.Skipped), len(summary.Failed))
	if len(summary.Failed) > 0 {
		return summary, fmt.Errorf("%d of %d cuesheets failed", len(summary.Failed), len(sheets))
	}
	return summary, nil
}

// processSheet 处理一张 CUE，成功后记录到存储中。返回值 skipped 表示已处理过而被跳过
func (ts *TaskScheduler) processSheet(ctx context.Context, cuePath, outputRoot string, skipProcessed bool) (skipped bool, err error) {
	store := ts.store
	var modTime time.Time
	if store != nil {
		if modTime, err = sheetModTime(cuePath); err != nil {
			ts.logger.Printf("WARN: Cannot determine modification time of %s, processing without the database: %v", cuePath, err)
			store = nil
		}
	}

	if skipProcessed && store != nil {
		processed, err := store.IsProcessed(cuePath, modTime)
		if err != nil {
			// 即使出错也尝试处理，避免遗漏
			ts.logger.Printf("ERROR: Error checking processed status for %s: %v", cuePath, err)
		}
		if processed {
			ts.logger.Printf("  -> Cuesheet %s already processed. Skipping.", cuePath)
			return true, nil
		}
	}

	if _, err := ts.processor.ProcessCueFile(ctx, cuePath, outputRoot, ts.opts); err != nil {
		return false, err
	}
	if store != nil {
		if err := store.MarkProcessed(cuePath, modTime); err != nil {
			ts.logger.Printf("WARN: %v", err)
		}
	}
	return false, nil
}

// sheetModTime 返回 CUE 所在目录中 CUE 与镜像文件的最新修改时间
func sheetModTime(cuePath string) (time.Time, error) {
	files, err := relevantFiles(filepath.Dir(cuePath))
	if err != nil {
		return time.Time{}, err
	}
	var latest time.Time
	for _, info := range files {
		if info.ModTime.After(latest) {
			latest = info.ModTime
		}
	}
	if latest.IsZero() {
		return time.Time{}, fmt.Errorf("%s not found", cuePath)
	}
	return latest, nil
}
