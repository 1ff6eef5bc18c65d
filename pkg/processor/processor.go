package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yleoer/cuesplit/pkg/converter"
	"github.com/yleoer/cuesplit/pkg/cuesheet"
	"github.com/yleoer/cuesplit/pkg/encoder"
	"github.com/yleoer/cuesplit/pkg/segment"
	"github.com/yleoer/cuesplit/pkg/util"
)

// ErrNotCuesheet 输入文件不是 .cue
var ErrNotCuesheet = errors.New("input is not a cuesheet")

// Tagger 在编码后写入标签
type Tagger interface {
	Write(path string, format encoder.Format, tags map[string]string) error
}

// Options 控制一张 CUE 的转换
type Options struct {
	Segment segment.Options
	Format  encoder.Format
}

// Output 是一个成功导出的文件
type Output struct {
	Job  segment.Job
	Path string
}

// JobError 记录单个任务的失败，不影响同一张 CUE 的其他任务
type JobError struct {
	Job segment.Job
	Err error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("track %02d (%s): %v", e.Job.TrackNumber, e.Job.SourceFile(), e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// Result 是一张 CUE 的处理结果，Outputs 与切割顺序一致
type Result struct {
	OutputDir string
	Outputs   []Output
	Failed    []*JobError
}

// Processor 负责把一张 CUE 从解析一直处理到带标签的音轨文件
type Processor struct {
	encoder       encoder.Encoder
	tagger        Tagger                  // 为空时标签只由编码器写入
	converter     converter.TextConverter // 为空时不做繁简转换
	maxConcurrent int
	logger        *log.Logger
}

// New 创建一个新的 Processor 实例。maxConcurrent 为同时处理的镜像文件数
func New(enc encoder.Encoder, tg Tagger, tc converter.TextConverter, maxConcurrent int, logger *log.Logger) *Processor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Processor{
		encoder:       enc,
		tagger:        tg,
		converter:     tc,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// ProcessCueFile 转换一张 CUE，输出到 outputRoot/<CUE 文件名>/。
// 解析或切割失败时整张 CUE 失败；单个任务失败（包括镜像文件缺失或被截断）只记录在 Result.Failed 中，
// 所有任务结束后再返回错误。
func (p *Processor) ProcessCueFile(ctx context.Context, cuePath, outputRoot string, opts Options) (*Result, error) {
	if !util.IsCueSheet(cuePath) {
		return nil, fmt.Errorf("%w: %s", ErrNotCuesheet, cuePath)
	}
	p.logger.Printf("Processing cuesheet %s", cuePath)

	sheet, err := cuesheet.ParseFile(cuePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cuePath, err)
	}
	p.logger.Printf("  -> Parsed %d files, %d tracks, %d indexes", len(sheet.Files), sheet.TrackCount(), sheet.IndexCount())

	src := segment.DirSource{Dir: filepath.Dir(cuePath)}
	segOpts := opts.Segment
	if segOpts.Skipped == nil {
		segOpts.Skipped = func(f *cuesheet.File, t *cuesheet.Track) {
			p.logger.Printf("  -> Skipping track %02d in %s: %s is not audio", t.Number, f.Name, t.Type)
		}
	}
	jobs, err := segment.Segment(sheet, src, segOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to segment %s: %w", cuePath, err)
	}

	stem := strings.TrimSuffix(filepath.Base(cuePath), filepath.Ext(cuePath))
	outDir := filepath.Join(outputRoot, util.SanitizeFileName(stem))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	var (
		mu      sync.Mutex
		outputs = make([]*Output, len(jobs))
		errs    = make([]*JobError, len(jobs))
		g       errgroup.Group
	)
	g.SetLimit(p.maxConcurrent)
	for _, group := range groupByFile(jobs) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.processGroup(ctx, src, group, jobs, outDir, opts.Format, func(i int, path string, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs[i] = &JobError{Job: jobs[i], Err: err}
					return
				}
				outputs[i] = &Output{Job: jobs[i], Path: path}
			})
			return nil
		})
	}
	waitErr := g.Wait()

	// 按切割顺序汇总，与并发完成的先后无关
	result := &Result{OutputDir: outDir}
	var joined []error
	for i := range jobs {
		if outputs[i] != nil {
			result.Outputs = append(result.Outputs, *outputs[i])
		}
		if errs[i] != nil {
			result.Failed = append(result.Failed, errs[i])
			joined = append(joined, errs[i])
		}
	}
	if waitErr != nil {
		return result, waitErr
	}
	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%d of %d tracks failed for %s: %w", len(result.Failed), len(jobs), cuePath, errors.Join(joined...))
	}
	p.logger.Printf("Successfully processed %s: %d tracks written to %s", cuePath, len(result.Outputs), outDir)
	return result, nil
}

// fileGroup 是起始于同一镜像文件的任务下标，按出现顺序排列
type fileGroup struct {
	name string
	jobs []int
}

func groupByFile(jobs []segment.Job) []*fileGroup {
	var groups []*fileGroup
	byName := make(map[string]*fileGroup)
	for i, job := range jobs {
		name := job.SourceFile()
		g, ok := byName[name]
		if !ok {
			g = &fileGroup{name: name}
			byName[name] = g
			groups = append(groups, g)
		}
		g.jobs = append(g.jobs, i)
	}
	return groups
}

// processGroup 顺序处理一个镜像文件的任务，文件句柄在组内复用，结束时关闭
func (p *Processor) processGroup(
	ctx context.Context,
	src segment.DirSource,
	group *fileGroup,
	jobs []segment.Job,
	outDir string,
	format encoder.Format,
	done func(i int, path string, err error),
) {
	p.logger.Printf("    Converting file %s (%d tracks)", group.name, len(group.jobs))
	handles := newHandleSet(src)
	defer handles.close()

	for _, i := range group.jobs {
		if err := ctx.Err(); err != nil {
			done(i, "", err)
			continue
		}
		path, err := p.runJob(ctx, handles, jobs[i], outDir, format)
		if err != nil {
			p.logger.Printf("  -> ERROR: Track %02d from %s failed: %v", jobs[i].TrackNumber, group.name, err)
		}
		done(i, path, err)
	}
}

func (p *Processor) runJob(ctx context.Context, handles *handleSet, job segment.Job, outDir string, format encoder.Format) (string, error) {
	pcm := make([]byte, 0, job.ByteLength())
	for _, r := range job.Ranges {
		data, err := handles.read(r)
		if err != nil {
			return "", err
		}
		pcm = append(pcm, data...)
	}

	tags := converter.ConvertTags(p.converter, job.Tags)
	outputPath := filepath.Join(outDir, util.SanitizeFileName(job.BaseName)+"."+format.Extension())
	p.logger.Printf("  -> Track %02d: %s (%d bytes)", job.TrackNumber, filepath.Base(outputPath), len(pcm))

	if err := p.encoder.Encode(ctx, pcm, tags, outputPath, format); err != nil {
		return "", err
	}
	if p.tagger != nil {
		if err := p.tagger.Write(outputPath, format, tags); err != nil {
			return "", err
		}
	}
	p.logger.Printf("  -> Successfully created %s", outputPath)
	return outputPath, nil
}
