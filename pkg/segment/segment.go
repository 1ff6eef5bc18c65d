package segment

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/yleoer/cuesplit/pkg/cuesheet"
)

// Range 是一个镜像文件中的连续字节区间
type Range struct {
	File   string
	Offset uint64
	Length uint64
	ToEOF  bool // 长度在读取时按文件末尾确定，此时 Length 为 0
}

// Resolve 返回区间在长度为 size 的文件中要读取的字节数
func (r Range) Resolve(size uint64) (uint64, error) {
	if !r.ToEOF {
		return r.Length, nil
	}
	if r.Offset > size {
		return 0, fmt.Errorf("%w: %s: start %d is beyond end of file %d", ErrSourceRead, r.File, r.Offset, size)
	}
	return size - r.Offset, nil
}

// Job 是一个待导出的音频片段。Ranges 通常只有一个，
// 只有 end 策略下跨文件拼接下一文件的 pregap 时才会有两个
type Job struct {
	TrackNumber int
	IndexNumber int  // 仅在 PerIndex 为 true 时有意义
	PerIndex    bool // 按索引点拆分产生的任务
	Hidden      bool // 第一轨 pregap 中检测到的隐藏音轨
	Ranges      []Range
	BaseName    string // 不含扩展名的输出文件名
	Tags        map[string]string
}

// SourceFile 返回任务起始区间所在的镜像文件
func (j Job) SourceFile() string {
	return j.Ranges[0].File
}

// ByteOffset 返回起始区间的偏移
func (j Job) ByteOffset() uint64 {
	return j.Ranges[0].Offset
}

// ByteLength 返回所有区间的总长度，ToEOF 区间不计入
func (j Job) ByteLength() uint64 {
	var n uint64
	for _, r := range j.Ranges {
		n += r.Length
	}
	return n
}

// Segment 根据 CueSheet 与切割选项计算有序的导出任务列表。
// 文件长度只在需要读到文件末尾时才通过 src 查询，镜像文件缺失或被截断只会让读取它的任务失败。
func Segment(sheet *cuesheet.CueSheet, src Source, opts Options) ([]Job, error) {
	var jobs []Job

	if opts.HiddenTrack && !opts.SeparateIndexes {
		job, found, err := hiddenTrackJob(sheet, src, opts)
		if err != nil {
			return nil, err
		}
		if found {
			jobs = append(jobs, job)
		}
	}

	for fi, file := range sheet.Files {
		s := &fileSegmenter{
			sheet: sheet,
			src:   src,
			opts:  opts,
			index: fi,
			file:  file,
		}
		fileJobs, err := s.jobs()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, fileJobs...)
	}
	return jobs, nil
}

// fileSegmenter 处理单个 File 内的音频轨
type fileSegmenter struct {
	sheet *cuesheet.CueSheet
	src   Source
	opts  Options
	index int
	file  *cuesheet.File

	size        uint64
	hasSize     bool
	sizeChecked bool
}

func (s *fileSegmenter) jobs() ([]Job, error) {
	if s.opts.Skipped != nil {
		for _, t := range s.file.Tracks {
			if !t.IsAudio() {
				s.opts.Skipped(s.file, t)
			}
		}
	}

	var jobs []Job
	tracks := s.file.AudioTracks()
	for i, track := range tracks {
		var next *cuesheet.Track
		if i+1 < len(tracks) {
			next = tracks[i+1]
		}

		if s.opts.SeparateIndexes {
			indexJobs, err := s.indexJobs(track, next)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, indexJobs...)
			continue
		}

		job, err := s.trackJob(track, next)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// indexJobs 每个索引点一个任务，终点为下一个索引点、下一轨的第一个索引点或文件末尾
func (s *fileSegmenter) indexJobs(track, next *cuesheet.Track) ([]Job, error) {
	indexes := track.Indexes
	if s.opts.Policy == PregapSkip {
		indexes = make([]cuesheet.Index, 0, len(track.Indexes))
		for _, idx := range track.Indexes {
			if idx.Number > 0 {
				indexes = append(indexes, idx)
			}
		}
	}

	tags := cuesheet.GetTags(s.sheet, track.Number)
	jobs := make([]Job, 0, len(indexes))
	for i, idx := range indexes {
		start := idx.Position.Bytes()
		var (
			r   Range
			err error
		)
		switch {
		case i+1 < len(indexes):
			r, err = s.span(track, start, indexes[i+1].Position.Bytes())
		case next != nil:
			r, err = s.span(track, start, next.FirstIndex().Position.Bytes())
		default:
			r = s.tail(start)
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{
			TrackNumber: track.Number,
			IndexNumber: idx.Number,
			PerIndex:    true,
			Ranges:      []Range{r},
			BaseName:    s.opts.baseName(track.Number, s.file.BaseName()) + fmt.Sprintf(" (Index %02d)", idx.Number),
			Tags:        maps.Clone(tags),
		})
	}
	return jobs, nil
}

// trackJob 按 pregap 策略为整轨生成一个任务
func (s *fileSegmenter) trackJob(track, next *cuesheet.Track) (Job, error) {
	var (
		start uint64
		end   uint64
		r     Range
		extra []Range
		err   error
	)

	switch s.opts.Policy {
	case PregapSkip, PregapStart:
		if s.opts.Policy == PregapSkip {
			start, err = indexOffset(s.file, track, 1)
			if err != nil {
				return Job{}, err
			}
		} else {
			start = track.FirstIndex().Position.Bytes()
		}
		if next != nil {
			r, err = s.span(track, start, next.FirstIndex().Position.Bytes())
		} else {
			r = s.tail(start)
		}

	case PregapEnd:
		start, err = indexOffset(s.file, track, 1)
		if err != nil {
			return Job{}, err
		}
		if next != nil {
			// 下一轨的 pregap 归入本轨
			if end, err = indexOffset(s.file, next, 1); err != nil {
				return Job{}, err
			}
			r, err = s.span(track, start, end)
		} else {
			r = s.tail(start)
			if pregap, ok := s.nextFilePregap(); ok {
				extra = append(extra, pregap)
			}
		}

	default:
		return Job{}, fmt.Errorf("unknown pregap policy %d", s.opts.Policy)
	}

	if err != nil {
		return Job{}, err
	}
	return Job{
		TrackNumber: track.Number,
		Ranges:      append([]Range{r}, extra...),
		BaseName:    s.opts.baseName(track.Number, s.file.BaseName()),
		Tags:        cuesheet.GetTags(s.sheet, track.Number),
	}, nil
}

// nextFilePregap 返回下一个文件第一轨的 INDEX 00 到 INDEX 01 区间。没有 pregap 时不拼接
func (s *fileSegmenter) nextFilePregap() (Range, bool) {
	if s.index+1 >= len(s.sheet.Files) {
		return Range{}, false
	}
	nextFile := s.sheet.Files[s.index+1]
	if len(nextFile.Tracks) == 0 {
		return Range{}, false
	}
	first := nextFile.Tracks[0]
	idx0, ok0 := first.Index(0)
	idx1, ok1 := first.Index(1)
	if !ok0 || !ok1 || idx1.Position.Bytes() <= idx0.Position.Bytes() {
		return Range{}, false
	}
	start := idx0.Position.Bytes()
	return Range{File: nextFile.Name, Offset: start, Length: idx1.Position.Bytes() - start}, true
}

// tail 返回从 start 到文件末尾的区间。文件长度查不到或 start 已越过文件末尾时，
// 长度留到读取时确定，由读取该区间的任务报告 ErrSourceRead
func (s *fileSegmenter) tail(start uint64) Range {
	if !s.sizeChecked {
		s.sizeChecked = true
		if size, err := s.src.Size(s.file.Name); err == nil {
			s.size, s.hasSize = size, true
		}
	}
	if s.hasSize && start <= s.size {
		return Range{File: s.file.Name, Offset: start, Length: s.size - start}
	}
	return Range{File: s.file.Name, Offset: start, ToEOF: true}
}

func (s *fileSegmenter) span(track *cuesheet.Track, start, end uint64) (Range, error) {
	if end < start {
		return Range{}, fmt.Errorf("track %02d (%s): %w: end %d before start %d",
			track.Number, s.file.Name, cuesheet.ErrMalformed, end, start)
	}
	return Range{File: s.file.Name, Offset: start, Length: end - start}, nil
}

func indexOffset(file *cuesheet.File, track *cuesheet.Track, number int) (uint64, error) {
	idx, ok := track.Index(number)
	if !ok {
		return 0, fmt.Errorf("track %02d (%s): %w %02d", track.Number, file.Name, cuesheet.ErrMissingIndex, number)
	}
	return idx.Position.Bytes(), nil
}

// hiddenTrackJob 检查第一个文件第一轨的 pregap，只要其中有非零字节就视为隐藏音轨。
// pregap 读不到时不导出隐藏音轨，第一轨的任务会在读取同一文件时报告错误
func hiddenTrackJob(sheet *cuesheet.CueSheet, src Source, opts Options) (Job, bool, error) {
	if len(sheet.Files) == 0 || len(sheet.Files[0].Tracks) == 0 {
		return Job{}, false, nil
	}
	file := sheet.Files[0]
	track := file.Tracks[0]
	if !track.IsAudio() || len(track.Indexes) == 0 || track.FirstIndex().Number != 0 {
		return Job{}, false, nil
	}

	start := track.FirstIndex().Position.Bytes()
	end, err := indexOffset(file, track, 1)
	if err != nil {
		return Job{}, false, err
	}
	if end <= start {
		return Job{}, false, nil
	}

	data, err := src.ReadRange(file.Name, start, end-start)
	if err != nil || isSilent(data) {
		return Job{}, false, nil
	}

	tags := cuesheet.GetTags(sheet, track.Number)
	tags[cuesheet.TagTrack] = fmt.Sprintf("0/%d", sheet.TrackCount())
	return Job{
		TrackNumber: 0,
		Hidden:      true,
		Ranges:      []Range{{File: file.Name, Offset: start, Length: end - start}},
		BaseName:    opts.baseName(0, file.BaseName()) + " (Hidden Track)",
		Tags:        tags,
	}, true, nil
}

func isSilent(data []byte) bool {
	return len(bytes.Trim(data, "\x00")) == 0
}
