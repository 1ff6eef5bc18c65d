package tagger

import (
	"fmt"
	"log"

	"github.com/yleoer/cuesplit/pkg/encoder"
)

// Tagger 在编码完成后把标签直接写入输出文件，不依赖 ffmpeg 的 muxer 映射
type Tagger struct {
	logger *log.Logger
}

// New 创建一个新的 Tagger 实例
func New(logger *log.Logger) *Tagger {
	return &Tagger{logger: logger}
}

// Write 按格式写入标签。wav 的标签在编码时已写入，这里什么都不做
func (t *Tagger) Write(path string, format encoder.Format, tags map[string]string) error {
	var err error
	switch format {
	case encoder.FormatMP3:
		err = writeID3(path, tags)
	case encoder.FormatFLAC:
		err = writeVorbis(path, tags)
	case encoder.FormatWAV:
		return nil
	default:
		return fmt.Errorf("%w: %s", encoder.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to tag %s: %w", path, err)
	}
	t.logger.Printf("  -> Tagged %s", path)
	return nil
}
