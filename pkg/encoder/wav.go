package encoder

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/yleoer/cuesplit/pkg/cuesheet"
)

// wavFormatPCM 是 WAVE fmt chunk 中的整数 PCM 格式码
const wavFormatPCM = 1

// WAVEncoder 不依赖外部程序直接写 WAV，标签写入 RIFF LIST/INFO
type WAVEncoder struct {
	logger *log.Logger
}

// NewWAVEncoder 创建一个新的 WAVEncoder 实例
func NewWAVEncoder(logger *log.Logger) *WAVEncoder {
	return &WAVEncoder{logger: logger}
}

func (e *WAVEncoder) Encode(ctx context.Context, pcm []byte, tags map[string]string, outputPath string, format Format) error {
	if format != FormatWAV {
		return fmt.Errorf("%w: native encoder only writes wav, got %s", ErrUnsupportedFormat, format)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ensureParentDir(outputPath); err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	if err := writeWAV(out, pcm, tags); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outputPath, err)
	}
	e.logger.Printf("  -> Wrote %s natively (%d bytes of PCM)", outputPath, len(pcm))
	return nil
}

func writeWAV(out *os.File, pcm []byte, tags map[string]string) error {
	enc := wav.NewEncoder(out, SampleRate, BitDepth, Channels, wavFormatPCM)
	enc.Metadata = infoFromTags(tags)

	if err := enc.Write(pcmBuffer(pcm)); err != nil {
		return err
	}
	return enc.Close()
}

// pcmBuffer 把小端 16 位样本转换为 go-audio 的缓冲区，末尾不足一个样本的字节被忽略
func pcmBuffer(pcm []byte) *audio.IntBuffer {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           samples,
		SourceBitDepth: BitDepth,
	}
}

func infoFromTags(tags map[string]string) *wav.Metadata {
	artist := tags[cuesheet.TagArtist]
	if artist == "" {
		artist = tags[cuesheet.TagAlbumArtist]
	}
	return &wav.Metadata{
		Title:    tags[cuesheet.TagTitle],
		Artist:   artist,
		Product:  tags[cuesheet.TagAlbum],
		TrackNbr: tags[cuesheet.TagTrack],
		Software: "cuesplit",
	}
}
