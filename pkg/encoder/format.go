package encoder

import (
	"fmt"
	"strings"
)

// Format 输出容器格式
type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatMP3  Format = "mp3"
)

// ParseFormat 解析 wav/flac/mp3，大小写不敏感
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatWAV, FormatFLAC, FormatMP3:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want wav, flac or mp3)", s)
	}
}

// Extension 返回不带点的文件扩展名
func (f Format) Extension() string {
	return string(f)
}

// codec 返回 ffmpeg 的音频编码器名
func (f Format) codec() string {
	switch f {
	case FormatWAV:
		return "pcm_s16le"
	case FormatMP3:
		return "libmp3lame"
	default:
		return "flac"
	}
}
