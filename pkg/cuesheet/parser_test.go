package cuesheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFileSheet = `REM GENRE Rock
CATALOG 0123456789012
CDTEXTFILE "album.cdt"
PERFORMER "Band"
TITLE "Album"
FILE "my album (disc 1).bin" BINARY
  TRACK 01 AUDIO
    TITLE "Song1"
    PERFORMER "Singer"
    FLAGS DCP PRE
    ISRC USRC17607839
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Song2"
    PREGAP 00:02:00
    INDEX 00 03:10:50
    INDEX 01 03:12:00
    INDEX 02 04:00:00
    POSTGAP 00:01:00
FILE "part2.bin" BINARY
  TRACK 03 MODE1/2352
    INDEX 01 00:00:00
  TRACK 04 AUDIO
    SONGWRITER "Writer"
    INDEX 00 01:00:00
    INDEX 01 01:02:00
`

func TestParse_FullSheet(t *testing.T) {
	sheet, err := ParseReader(strings.NewReader(twoFileSheet))
	require.NoError(t, err)

	assert.Equal(t, "0123456789012", sheet.Catalog)
	assert.Equal(t, `"album.cdt"`, sheet.CDTextFile)
	assert.Equal(t, "Album", sheet.Title)
	require.Len(t, sheet.Files, 2)

	f1 := sheet.Files[0]
	assert.Equal(t, "my album (disc 1).bin", f1.Name)
	assert.Equal(t, "BINARY", f1.Type)
	assert.Equal(t, "my album (disc 1)", f1.BaseName())
	require.Len(t, f1.Tracks, 2)

	t1 := f1.Tracks[0]
	assert.Equal(t, 1, t1.Number)
	assert.Equal(t, "AUDIO", t1.Type)
	assert.Equal(t, "Song1", t1.Title)
	assert.Equal(t, "Singer", t1.Performer)
	assert.Equal(t, []string{"DCP", "PRE"}, t1.Flags)
	assert.Equal(t, "USRC17607839", t1.ISRC)

	t2 := f1.Tracks[1]
	require.NotNil(t, t2.Pregap)
	assert.Equal(t, Timecode{Seconds: 2}, *t2.Pregap)
	require.NotNil(t, t2.Postgap)
	assert.Equal(t, Timecode{Seconds: 1}, *t2.Postgap)
	require.Len(t, t2.Indexes, 3)
	assert.Equal(t, Index{Number: 0, Position: Timecode{3, 10, 50}}, t2.Indexes[0])
	assert.Equal(t, 2, t2.Indexes[2].Number)

	f2 := sheet.Files[1]
	require.Len(t, f2.Tracks, 2)
	assert.False(t, f2.Tracks[0].IsAudio())
	assert.Len(t, f2.AudioTracks(), 1)
	assert.Equal(t, "Writer", f2.Tracks[1].Songwriter)

	assert.Equal(t, 4, sheet.TrackCount())
	assert.Equal(t, 7, sheet.IndexCount())
}

func TestParse_IndexCountMatchesIndexLines(t *testing.T) {
	sheet, err := ParseReader(strings.NewReader(twoFileSheet))
	require.NoError(t, err)

	lines := 0
	for _, l := range strings.Split(twoFileSheet, "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), "INDEX ") {
			lines++
		}
	}
	assert.Equal(t, lines, sheet.IndexCount())
}

func TestParse_PerformerOverwritesSheetLevel(t *testing.T) {
	sheet, err := Parse([]string{
		`PERFORMER "Band"`,
		`SONGWRITER "Composer"`,
		`TITLE "Album"`,
		`FILE "a.bin" BINARY`,
		`TRACK 01 AUDIO`,
		`TITLE "One"`,
		`PERFORMER "Guest"`,
		`INDEX 01 00:00:00`,
		`TRACK 02 AUDIO`,
		`TITLE "Two"`,
		`PERFORMER "Last"`,
		`SONGWRITER "Lyricist"`,
		`INDEX 01 01:00:00`,
	})
	require.NoError(t, err)

	// PERFORMER/SONGWRITER: last seen track value wins at sheet level
	assert.Equal(t, "Last", sheet.Performer)
	assert.Equal(t, "Lyricist", sheet.Songwriter)
	// TITLE inside a track only touches the track
	assert.Equal(t, "Album", sheet.Title)
	assert.Equal(t, "Guest", sheet.Files[0].Tracks[0].Performer)
}

func TestParse_FileNameSplitOnLastSpace(t *testing.T) {
	sheet, err := Parse([]string{
		`FILE "my album.bin" BINARY`,
		`TRACK 01 AUDIO`,
		`INDEX 01 00:00:00`,
	})
	require.NoError(t, err)
	assert.Equal(t, "my album.bin", sheet.Files[0].Name)
	assert.Equal(t, "BINARY", sheet.Files[0].Type)
}

func TestParse_IndexOrderPreserved(t *testing.T) {
	sheet, err := Parse([]string{
		`FILE "a.bin" BINARY`,
		`TRACK 01 AUDIO`,
		`INDEX 02 00:30:00`,
		`INDEX 01 00:00:00`,
	})
	require.NoError(t, err)
	idx := sheet.Files[0].Tracks[0].Indexes
	require.Len(t, idx, 2)
	assert.Equal(t, 2, idx[0].Number)
	assert.Equal(t, 1, idx[1].Number)
}

func TestParse_UnknownCommandsIgnored(t *testing.T) {
	sheet, err := Parse([]string{
		`REM DATE 1999`,
		`FOO bar baz`,
		``,
		`FILE "a.bin" BINARY`,
		`TRACK 01 AUDIO`,
		`REM COMMENT x`,
		`INDEX 01 00:00:00`,
	})
	require.NoError(t, err)
	assert.Len(t, sheet.Files, 1)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"empty input", nil},
		{"only comments", []string{`REM nothing`}},
		{"no remainder", []string{`FILE "a.bin" BINARY`, `TRACK`}},
		{"track before file", []string{`TRACK 01 AUDIO`}},
		{"index before track", []string{`FILE "a.bin" BINARY`, `INDEX 01 00:00:00`}},
		{"flags before track", []string{`FILE "a.bin" BINARY`, `FLAGS DCP`}},
		{"file without type", []string{`FILE a.bin`}},
		{"file without tracks", []string{`FILE "a.bin" BINARY`}},
		{"previous file without tracks", []string{`FILE "a.bin" BINARY`, `FILE "b.bin" BINARY`}},
		{"track without index", []string{`FILE "a.bin" BINARY`, `TRACK 01 AUDIO`}},
		{"track without index mid sheet", []string{`FILE "a.bin" BINARY`, `TRACK 01 AUDIO`, `TRACK 02 AUDIO`, `INDEX 01 00:00:00`}},
		{"bad track number", []string{`FILE "a.bin" BINARY`, `TRACK xx AUDIO`}},
		{"zero track number", []string{`FILE "a.bin" BINARY`, `TRACK 00 AUDIO`}},
		{"track missing type", []string{`FILE "a.bin" BINARY`, `TRACK 01`}},
		{"bad timecode", []string{`FILE "a.bin" BINARY`, `TRACK 01 AUDIO`, `INDEX 01 00:00`}},
		{"frames out of range", []string{`FILE "a.bin" BINARY`, `TRACK 01 AUDIO`, `INDEX 01 00:00:75`}},
		{"bad pregap", []string{`FILE "a.bin" BINARY`, `TRACK 01 AUDIO`, `PREGAP soon`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.lines)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseFile_GBK(t *testing.T) {
	// "专辑" in GBK
	gbkTitle := []byte{0xD7, 0xA8, 0xBC, 0xAD}
	content := append([]byte("TITLE \""), gbkTitle...)
	content = append(content, []byte("\"\nFILE \"a.wav\" WAVE\nTRACK 01 AUDIO\nINDEX 01 00:00:00\n")...)

	path := filepath.Join(t.TempDir(), "album.cue")
	require.NoError(t, os.WriteFile(path, content, 0644))

	sheet, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "专辑", sheet.Title)
}

func TestParseFile_BOM(t *testing.T) {
	content := "\xEF\xBB\xBFFILE \"a.wav\" WAVE\r\nTRACK 01 AUDIO\r\nINDEX 01 00:00:00\r\n"
	path := filepath.Join(t.TempDir(), "album.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	sheet, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.wav", sheet.Files[0].Name)
	assert.Equal(t, "WAVE", sheet.Files[0].Type)
}
