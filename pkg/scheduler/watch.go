package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yleoer/cuesplit/pkg/util"
)

// Watch 先对 root 中未处理过的 CUE 做一次批量处理，然后监听 root 的一级子目录，
// 目录中的文件稳定后处理其中新的 CUE。ctx 结束时返回
func (ts *TaskScheduler) Watch(ctx context.Context, root, outputRoot string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("error adding input root %s to watcher: %w", root, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("error reading input root %s: %w", root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			ts.watchDir(watcher, filepath.Join(root, entry.Name()))
		}
	}

	ts.logger.Println("Performing initial scan for unprocessed cuesheets...")
	if _, err := ts.batch(ctx, root, outputRoot, true); err != nil {
		ts.logger.Printf("WARN: Initial scan finished with errors: %v", err)
	}

	ts.logger.Printf("Monitoring %s for new cuesheets...", root)
	defer ts.stopPendingScans()
	for {
		select {
		case <-ctx.Done():
			ts.logger.Println("Watcher stopped.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			ts.handleEvent(ctx, watcher, root, outputRoot, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ts.logger.Printf("ERROR: Watcher error: %v", err)
		}
	}
}

// handleEvent 只关注 root 的直接子目录及其中的文件
func (ts *TaskScheduler) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, root, outputRoot string, event fsnotify.Event) {
	ts.logger.Printf("Watcher event: %s, on %s", event.Op.String(), event.Name)

	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == root && util.IsDirectory(event.Name) {
		ts.logger.Printf("  -> New top-level directory created: %s. Scheduling scan.", event.Name)
		ts.watchDir(watcher, event.Name)
		ts.TriggerScan(ctx, event.Name, outputRoot)
		return
	}

	candidate := event.Name
	if !util.IsDirectory(event.Name) {
		candidate = filepath.Dir(event.Name)
	}
	if filepath.Dir(candidate) == root {
		if util.IsRelevantImageFile(event.Name) || candidate == event.Name {
			ts.TriggerScan(ctx, candidate, outputRoot)
		}
		return
	}
	ts.logger.Printf("  -> Event %s not in a direct subdirectory of %s. Ignoring.", event.Name, root)
}

func (ts *TaskScheduler) watchDir(watcher *fsnotify.Watcher, dir string) {
	if err := watcher.Add(dir); err != nil {
		ts.logger.Printf("ERROR: Error adding %s to watcher: %v", dir, err)
	}
}

// TriggerScan 将一个目录添加到延迟扫描队列，同一目录的重复触发会重置计时器
func (ts *TaskScheduler) TriggerScan(ctx context.Context, dir, outputRoot string) {
	ts.pendingScansMutex.Lock()
	defer ts.pendingScansMutex.Unlock()
	if ts.closed {
		return
	}
	if timer, ok := ts.pendingScans[dir]; ok {
		timer.Stop()
	}
	ts.pendingScans[dir] = time.AfterFunc(ts.cfg.StabilityCheckInterval, func() {
		ts.pendingScansMutex.Lock()
		if ts.closed {
			ts.pendingScansMutex.Unlock()
			return
		}
		ts.running.Add(1)
		delete(ts.pendingScans, dir)
		ts.pendingScansMutex.Unlock()

		defer ts.running.Done()
		ts.performScan(ctx, dir, outputRoot)
	})
	ts.logger.Printf("Scheduled scan for %s in %v", dir, ts.cfg.StabilityCheckInterval)
}

// stopPendingScans 取消尚未开始的扫描并等待正在进行的扫描结束
func (ts *TaskScheduler) stopPendingScans() {
	ts.pendingScansMutex.Lock()
	ts.closed = true
	for dir, timer := range ts.pendingScans {
		timer.Stop()
		delete(ts.pendingScans, dir)
	}
	ts.pendingScansMutex.Unlock()
	ts.running.Wait()
}

// performScan 等待目录稳定后处理其中尚未处理的 CUE
func (ts *TaskScheduler) performScan(ctx context.Context, dir, outputRoot string) {
	ts.scanMutex.Lock() // 避免并发处理同一个目录
	defer ts.scanMutex.Unlock()
	ts.logger.Printf("-> Performing scan for changes in directory: %s", dir)

	if !ts.waitForFilesStability(ctx, dir) {
		if ctx.Err() != nil {
			return
		}
		ts.logger.Printf("  -> Files in %s are still changing. Rescheduling scan.", dir)
		ts.TriggerScan(ctx, dir, outputRoot)
		return
	}

	sheets, err := ts.scanner.CueSheetsInDir(dir)
	if err != nil {
		ts.logger.Printf("ERROR: Error scanning directory %s: %v", dir, err)
		return
	}
	for _, sheet := range sheets {
		if _, err := ts.processSheet(ctx, sheet, outputRoot, true); err != nil {
			ts.logger.Printf("ERROR: Error processing cuesheet %s: %v", sheet, err)
		}
	}
}

// fileInfo 用于存储文件的关键信息
type fileInfo struct {
	Size    int64
	ModTime time.Time
}

// waitForFilesStability 等待目录中的 CUE 与镜像文件在 StabilityQuietDuration 内都没有变化
func (ts *TaskScheduler) waitForFilesStability(ctx context.Context, dir string) bool {
	ts.logger.Printf("  -> Waiting for files in %s to stabilize for %v...", dir, ts.cfg.StabilityQuietDuration)
	previous := make(map[string]fileInfo)
	lastChange := make(map[string]time.Time)
	deadline := time.Now().Add(ts.cfg.StabilityMaxWait)

	for time.Now().Before(deadline) {
		now := time.Now()
		current, err := relevantFiles(dir)
		if err != nil {
			ts.logger.Printf("ERROR: Error reading directory %s for stability check: %v", dir, err)
		} else {
			if len(current) == 0 {
				ts.logger.Printf("  -> No relevant files found in %s. Proceeding.", dir)
				return true
			}
			quiet := true
			for path, info := range current {
				prev, seen := previous[path]
				if !seen || prev.Size != info.Size || !prev.ModTime.Equal(info.ModTime) {
					lastChange[path] = now
				}
				if now.Sub(lastChange[path]) < ts.cfg.StabilityQuietDuration {
					quiet = false
				}
			}
			previous = current
			if quiet {
				ts.logger.Printf("  -> All relevant files in %s are stable for at least %v.", dir, ts.cfg.StabilityQuietDuration)
				return true
			}
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(ts.cfg.StabilityCheckInterval):
		}
	}
	ts.logger.Printf("  -> Max wait time for stability exceeded for %s.", dir)
	return false
}

func relevantFiles(dir string) (map[string]fileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]fileInfo)
	for _, entry := range entries {
		if entry.IsDir() || !util.IsRelevantImageFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		files[filepath.Join(dir, entry.Name())] = fileInfo{Size: info.Size(), ModTime: info.ModTime()}
	}
	return files, nil
}
