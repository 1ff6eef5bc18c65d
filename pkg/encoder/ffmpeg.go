package encoder

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"slices"
	"strings"
)

// FFmpegEncoder 通过标准输入把 PCM 交给 FFmpeg 编码
type FFmpegEncoder struct {
	ffmpegPath string
	logger     *log.Logger
}

// NewFFmpegEncoder 创建一个新的 FFmpegEncoder 实例
func NewFFmpegEncoder(ffmpegPath string, logger *log.Logger) *FFmpegEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegEncoder{ffmpegPath: ffmpegPath, logger: logger}
}

func (e *FFmpegEncoder) Encode(ctx context.Context, pcm []byte, tags map[string]string, outputPath string, format Format) error {
	if err := ensureParentDir(outputPath); err != nil {
		return err
	}
	args := buildArgs(tags, outputPath, format)
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(pcm)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Printf("  -> Executing FFmpeg... Command: %s %s", e.ffmpegPath, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed for %s: %w\n%s", outputPath, err, stderr.String())
	}
	return nil
}

// buildArgs 构建一条从标准输入读取 PCM 并写入元数据的命令
func buildArgs(tags map[string]string, outputPath string, format Format) []string {
	args := []string{
		"-y",
		"-f", "s16le",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", fmt.Sprint(Channels),
		"-i", "pipe:0",
		"-c:a", format.codec(),
	}
	if format == FormatMP3 {
		args = append(args, "-id3v2_version", "3")
	}
	// 键排序，保证同样的输入得到同样的命令
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		addMetadata(&args, k, tags[k])
	}
	return append(args, outputPath)
}

func addMetadata(args *[]string, key, value string) {
	if value != "" {
		*args = append(*args, "-metadata", fmt.Sprintf("%s=%s", key, value))
	}
}
