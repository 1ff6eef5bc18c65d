package segment

import (
	"fmt"
	"strings"

	"github.com/yleoer/cuesplit/pkg/cuesheet"
)

// PregapPolicy 决定 INDEX 00 到 INDEX 01 之间的 pregap 音频归属
type PregapPolicy int

const (
	// PregapSkip 丢弃 pregap，从 INDEX 01 开始
	PregapSkip PregapPolicy = iota
	// PregapStart pregap 留在本轨开头，从第一个索引点开始
	PregapStart
	// PregapEnd pregap 并入上一轨末尾（默认）
	PregapEnd
)

// ParsePregapPolicy 解析 skip/start/end
func ParsePregapPolicy(s string) (PregapPolicy, error) {
	switch strings.ToLower(s) {
	case "skip":
		return PregapSkip, nil
	case "start":
		return PregapStart, nil
	case "end":
		return PregapEnd, nil
	default:
		return PregapEnd, fmt.Errorf("unknown pregap policy %q (want skip, start or end)", s)
	}
}

func (p PregapPolicy) String() string {
	switch p {
	case PregapSkip:
		return "skip"
	case PregapStart:
		return "start"
	default:
		return "end"
	}
}

// Naming 输出文件名的命名方式，同一次运行中只能使用一种
type Naming int

const (
	// NamingNumbered "NN - 文件名"
	NamingNumbered Naming = iota
	// NamingPlain 不带数字前缀
	NamingPlain
)

// ParseNaming 解析 numbered/plain
func ParseNaming(s string) (Naming, error) {
	switch strings.ToLower(s) {
	case "numbered", "":
		return NamingNumbered, nil
	case "plain":
		return NamingPlain, nil
	default:
		return NamingNumbered, fmt.Errorf("unknown naming %q (want numbered or plain)", s)
	}
}

// Options 控制一次切割
type Options struct {
	Policy PregapPolicy

	// SeparateIndexes 为 true 时每个索引点单独导出，优先于 Policy（skip 时仍会去掉 INDEX 00）
	SeparateIndexes bool

	// HiddenTrack 检测第一轨 pregap 中的隐藏音轨，仅在 SeparateIndexes 为 false 时生效
	HiddenTrack bool

	Naming Naming

	// Skipped 在跳过非音频轨时被调用，可为空
	Skipped func(file *cuesheet.File, track *cuesheet.Track)
}

func (o Options) baseName(trackNumber int, base string) string {
	if o.Naming == NamingPlain {
		return base
	}
	return fmt.Sprintf("%02d - %s", trackNumber, base)
}
