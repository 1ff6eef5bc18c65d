package tagger

import (
	"fmt"
	"strings"

	flac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacvorbis"

	"github.com/yleoer/cuesplit/pkg/cuesheet"
)

func writeVorbis(path string, tags map[string]string) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return err
	}

	// 去掉已有的 VORBIS_COMMENT，整块替换
	meta := make([]*flac.MetaDataBlock, 0, len(f.Meta)+1)
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			meta = append(meta, block)
		}
	}

	comment, err := vorbisComment(tags)
	if err != nil {
		return err
	}
	block := comment.Marshal()
	f.Meta = append(meta, &block)
	return f.Save(path)
}

func vorbisComment(tags map[string]string) (*flacvorbis.MetaDataBlockVorbisComment, error) {
	fields := [][2]string{
		{flacvorbis.FIELD_TITLE, tags[cuesheet.TagTitle]},
		{flacvorbis.FIELD_ARTIST, tags[cuesheet.TagArtist]},
		{"ALBUMARTIST", tags[cuesheet.TagAlbumArtist]},
		{flacvorbis.FIELD_ALBUM, tags[cuesheet.TagAlbum]},
		{"LYRICIST", tags[cuesheet.TagLyricist]},
		{flacvorbis.FIELD_ISRC, tags[cuesheet.TagISRC]},
	}
	// "n/total" 拆成两个字段
	if track := tags[cuesheet.TagTrack]; track != "" {
		number, total, found := strings.Cut(track, "/")
		fields = append(fields, [2]string{flacvorbis.FIELD_TRACKNUMBER, number})
		if found {
			fields = append(fields, [2]string{"TRACKTOTAL", total})
		}
	}

	comment := flacvorbis.New()
	for _, field := range fields {
		if err := addField(comment, field[0], field[1]); err != nil {
			return nil, err
		}
	}
	return comment, nil
}

// addField 跳过空值。字段名含 '=' 等非法字符时 Add 会报错
func addField(comment *flacvorbis.MetaDataBlockVorbisComment, field, value string) error {
	if value == "" {
		return nil
	}
	if err := comment.Add(field, value); err != nil {
		return fmt.Errorf("failed to add vorbis field %s: %w", field, err)
	}
	return nil
}
