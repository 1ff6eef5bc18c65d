package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("TITLE \"专辑\""), "TITLE \"专辑\""},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "TITLE"...), "TITLE"},
		{"gbk", []byte{0xD7, 0xA8, 0xBC, 0xAD}, "专辑"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.in, "album.cue")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "AC_DC - Back in Black", SanitizeFileName("AC/DC - Back in Black"))
	assert.Equal(t, "01 - Why", SanitizeFileName("01 - Why?"))
	assert.Equal(t, "a b", SanitizeFileName("  a   b  "))
}

func TestIsCueSheet(t *testing.T) {
	assert.True(t, IsCueSheet("/music/album.cue"))
	assert.True(t, IsCueSheet("ALBUM.CUE"))
	assert.False(t, IsCueSheet("album.cue.txt"))
	assert.False(t, IsCueSheet("album"))
}

func TestIsRelevantImageFile(t *testing.T) {
	for _, name := range []string{"a.cue", "a.BIN", "a.img", "a.wav"} {
		assert.True(t, IsRelevantImageFile(name), name)
	}
	for _, name := range []string{"a.txt", "a.jpg", "a"} {
		assert.False(t, IsRelevantImageFile(name), name)
	}
}

func TestIsDirectory(t *testing.T) {
	assert.True(t, IsDirectory(t.TempDir()))
	assert.False(t, IsDirectory("/definitely/not/here"))
}
