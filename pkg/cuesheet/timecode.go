package cuesheet

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// SampleRate 红皮书 CD 的采样率
	SampleRate = 44100
	// Channels 声道数
	Channels = 2
	// BytesPerSample 每个采样 16 bit
	BytesPerSample = 2
	// FramesPerSecond 每秒 75 帧（即 75 个扇区）
	FramesPerSecond = 75
	// BytesPerSector 一帧原始 PCM 的字节数，2352
	BytesPerSector = SampleRate * Channels * BytesPerSample / FramesPerSecond
)

// Timecode 是 MM:SS:FF 形式的位置，FF 为 1/75 秒
type Timecode struct {
	Minutes int
	Seconds int
	Frames  int
}

// ParseTimecode 解析 MM:SS:FF 格式的时间码
func ParseTimecode(s string) (Timecode, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Timecode{}, fmt.Errorf("%w: invalid timecode %q", ErrMalformed, s)
	}
	var values [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Timecode{}, fmt.Errorf("%w: invalid timecode %q", ErrMalformed, s)
		}
		values[i] = v
	}
	tc := Timecode{Minutes: values[0], Seconds: values[1], Frames: values[2]}
	if tc.Seconds >= 60 || tc.Frames >= FramesPerSecond {
		return Timecode{}, fmt.Errorf("%w: timecode %q out of range", ErrMalformed, s)
	}
	return tc, nil
}

// TotalFrames 返回从文件起点算起的总帧数
func (tc Timecode) TotalFrames() uint64 {
	return uint64((tc.Minutes*60+tc.Seconds)*FramesPerSecond + tc.Frames)
}

// Bytes 将时间码换算为原始镜像中的字节偏移
func (tc Timecode) Bytes() uint64 {
	return tc.TotalFrames() * BytesPerSector
}

func (tc Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", tc.Minutes, tc.Seconds, tc.Frames)
}

// BytesFromTimecode 直接把 MM:SS:FF 字符串换算为字节偏移
func BytesFromTimecode(s string) (uint64, error) {
	tc, err := ParseTimecode(s)
	if err != nil {
		return 0, err
	}
	return tc.Bytes(), nil
}
