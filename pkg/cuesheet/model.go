package cuesheet

import (
	"path/filepath"
	"strings"
)

// TrackTypeAudio 是唯一会被切割导出的轨道类型
const TrackTypeAudio = "AUDIO"

// Index 代表轨道内的一个索引点，0 号为 pregap 起点，1 号为正式起点
type Index struct {
	Number   int
	Position Timecode
}

// Track 代表一个音轨。Number 在整张 CueSheet 内唯一，而不仅仅在所属 File 内
type Track struct {
	Number     int
	Type       string
	Title      string
	Performer  string
	Songwriter string
	Flags      []string
	ISRC       string
	Pregap     *Timecode // PREGAP 声明的长度，与 INDEX 00 无关
	Postgap    *Timecode
	Indexes    []Index // 按解析顺序保存，不重新排序
}

// Index 返回编号为 n 的第一个索引点
func (t *Track) Index(n int) (Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Number == n {
			return idx, true
		}
	}
	return Index{}, false
}

// FirstIndex 返回轨道的第一个索引点（有 INDEX 00 时即为 pregap 起点）
func (t *Track) FirstIndex() Index {
	return t.Indexes[0]
}

// IsAudio 判断轨道是否为音频轨
func (t *Track) IsAudio() bool {
	return t.Type == TrackTypeAudio
}

// File 代表 CUE 中的一个 FILE 条目，即一个独立的物理镜像文件
type File struct {
	Name   string // 相对于 CUE 文件所在目录的路径，区分大小写
	Type   string
	Tracks []*Track
}

// AudioTracks 返回该文件中所有音频轨，保持原有顺序
func (f *File) AudioTracks() []*Track {
	tracks := make([]*Track, 0, len(f.Tracks))
	for _, t := range f.Tracks {
		if t.IsAudio() {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// BaseName 返回去掉目录和扩展名后的文件名
func (f *File) BaseName() string {
	base := filepath.Base(filepath.FromSlash(f.Name))
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// CueSheet 是解析后的整张 CUE。解析完成后只读
type CueSheet struct {
	Catalog    string
	CDTextFile string
	Title      string
	Performer  string
	Songwriter string
	Files      []*File
}

// TrackCount 返回所有文件中的轨道总数（包括非音频轨）
func (c *CueSheet) TrackCount() int {
	n := 0
	for _, f := range c.Files {
		n += len(f.Tracks)
	}
	return n
}

// IndexCount 返回所有轨道的索引点总数
func (c *CueSheet) IndexCount() int {
	n := 0
	for _, f := range c.Files {
		for _, t := range f.Tracks {
			n += len(t.Indexes)
		}
	}
	return n
}

// Track 按编号查找轨道，编号重复时返回第一个
func (c *CueSheet) Track(number int) (*Track, bool) {
	for _, f := range c.Files {
		for _, t := range f.Tracks {
			if t.Number == number {
				return t, true
			}
		}
	}
	return nil, false
}
