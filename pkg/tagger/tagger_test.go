package tagger

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	flac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacvorbis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yleoer/cuesplit/pkg/encoder"
)

var sampleTags = map[string]string{
	"track":        "2/3",
	"album":        "Album",
	"album_artist": "Band",
	"title":        "Song2",
	"artist":       "Guest",
	"lyricist":     "Writer",
	"isrc":         "GBAYE0000001",
}

func newTagger() *Tagger {
	return New(log.New(io.Discard, "", 0))
}

func TestWrite_MP3(t *testing.T) {
	audio := bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 64)
	path := filepath.Join(t.TempDir(), "02 - a.mp3")
	require.NoError(t, os.WriteFile(path, audio, 0644))

	require.NoError(t, newTagger().Write(path, encoder.FormatMP3, sampleTags))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()

	assert.Equal(t, "Song2", tag.Title())
	assert.Equal(t, "Guest", tag.Artist())
	assert.Equal(t, "Album", tag.Album())
	assert.Equal(t, "Band", tag.GetTextFrame("TPE2").Text)
	assert.Equal(t, "2/3", tag.GetTextFrame("TRCK").Text)
	assert.Equal(t, "Writer", tag.GetTextFrame("TEXT").Text)
	assert.Equal(t, "GBAYE0000001", tag.GetTextFrame("TSRC").Text)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, audio), "audio frames must survive tagging")
}

func TestWrite_MP3Retag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mp3")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 16), 0644))

	tg := newTagger()
	require.NoError(t, tg.Write(path, encoder.FormatMP3, sampleTags))
	require.NoError(t, tg.Write(path, encoder.FormatMP3, map[string]string{"title": "Other"}))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	assert.Equal(t, "Other", tag.Title())
	assert.Empty(t, tag.Artist())
}

func writeTestFLAC(t *testing.T, meta ...*flac.MetaDataBlock) string {
	t.Helper()
	streamInfo := &flac.MetaDataBlock{Type: flac.StreamInfo, Data: make([]byte, 34)}
	f := &flac.File{
		Meta:   append([]*flac.MetaDataBlock{streamInfo}, meta...),
		Frames: []byte{0xFF, 0xF8, 0x00, 0x01},
	}
	path := filepath.Join(t.TempDir(), "a.flac")
	require.NoError(t, f.Save(path))
	return path
}

func readComment(t *testing.T, path string) (*flacvorbis.MetaDataBlockVorbisComment, int) {
	t.Helper()
	f, err := flac.ParseFile(path)
	require.NoError(t, err)

	var (
		found *flacvorbis.MetaDataBlockVorbisComment
		count int
	)
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			count++
			found, err = flacvorbis.ParseFromMetaDataBlock(*block)
			require.NoError(t, err)
		}
	}
	return found, count
}

func TestWrite_FLAC(t *testing.T) {
	path := writeTestFLAC(t)

	require.NoError(t, newTagger().Write(path, encoder.FormatFLAC, sampleTags))

	comment, count := readComment(t, path)
	require.Equal(t, 1, count)

	get := func(field string) string {
		values, err := comment.Get(field)
		require.NoError(t, err)
		require.Len(t, values, 1, field)
		return values[0]
	}
	assert.Equal(t, "Song2", get(flacvorbis.FIELD_TITLE))
	assert.Equal(t, "Guest", get(flacvorbis.FIELD_ARTIST))
	assert.Equal(t, "Band", get("ALBUMARTIST"))
	assert.Equal(t, "Album", get(flacvorbis.FIELD_ALBUM))
	assert.Equal(t, "2", get(flacvorbis.FIELD_TRACKNUMBER))
	assert.Equal(t, "3", get("TRACKTOTAL"))
	assert.Equal(t, "Writer", get("LYRICIST"))
	assert.Equal(t, "GBAYE0000001", get(flacvorbis.FIELD_ISRC))
}

func TestWrite_FLACReplacesExistingComment(t *testing.T) {
	old := flacvorbis.New()
	require.NoError(t, old.Add(flacvorbis.FIELD_TITLE, "Old"))
	block := old.Marshal()
	path := writeTestFLAC(t, &block)

	require.NoError(t, newTagger().Write(path, encoder.FormatFLAC, map[string]string{"title": "New"}))

	comment, count := readComment(t, path)
	require.Equal(t, 1, count)
	values, err := comment.Get(flacvorbis.FIELD_TITLE)
	require.NoError(t, err)
	assert.Equal(t, []string{"New"}, values)
}

func TestWrite_WAVIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.wav")
	assert.NoError(t, newTagger().Write(path, encoder.FormatWAV, sampleTags))
	assert.NoFileExists(t, path)
}

func TestWrite_Errors(t *testing.T) {
	tg := newTagger()
	assert.ErrorIs(t, tg.Write("x.ogg", encoder.Format("ogg"), nil), encoder.ErrUnsupportedFormat)

	notFLAC := filepath.Join(t.TempDir(), "bad.flac")
	require.NoError(t, os.WriteFile(notFLAC, []byte("not a flac file"), 0644))
	assert.Error(t, tg.Write(notFLAC, encoder.FormatFLAC, sampleTags))
}

func TestAddField(t *testing.T) {
	comment := flacvorbis.New()
	require.NoError(t, addField(comment, flacvorbis.FIELD_TITLE, "Song"))
	require.NoError(t, addField(comment, flacvorbis.FIELD_ALBUM, ""))
	assert.Equal(t, []string{"TITLE=Song"}, comment.Comments)

	err := addField(comment, "BAD=FIELD", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD=FIELD")
	assert.Len(t, comment.Comments, 1)
}
