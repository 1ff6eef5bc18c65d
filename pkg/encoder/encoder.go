package encoder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// CD 音频的 PCM 参数：小端 16 位立体声 44100Hz
const (
	SampleRate = 44100
	Channels   = 2
	BitDepth   = 16
)

// ErrUnsupportedFormat 编码器不支持请求的格式
var ErrUnsupportedFormat = errors.New("unsupported format")

// Encoder 把原始 PCM 编码为带标签的音频文件，需要时创建父目录
type Encoder interface {
	Encode(ctx context.Context, pcm []byte, tags map[string]string, outputPath string, format Format) error
}

// New 根据配置选择编码器。native 只用于 wav，其余格式仍走 ffmpeg
func New(kind, ffmpegPath string, logger *log.Logger) (Encoder, error) {
	ffmpeg := NewFFmpegEncoder(ffmpegPath, logger)
	switch kind {
	case "", "ffmpeg":
		return ffmpeg, nil
	case "native":
		return &Router{WAV: NewWAVEncoder(logger), Fallback: ffmpeg}, nil
	default:
		return nil, fmt.Errorf("unknown encoder %q (want ffmpeg or native)", kind)
	}
}

// Router 按格式把请求分给原生 WAV 编码器或后备编码器
type Router struct {
	WAV      *WAVEncoder
	Fallback Encoder
}

func (r *Router) Encode(ctx context.Context, pcm []byte, tags map[string]string, outputPath string, format Format) error {
	if format == FormatWAV && r.WAV != nil {
		return r.WAV.Encode(ctx, pcm, tags, outputPath, format)
	}
	if r.Fallback == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return r.Fallback.Encode(ctx, pcm, tags, outputPath, format)
}

func ensureParentDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
