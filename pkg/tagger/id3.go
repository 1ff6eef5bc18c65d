package tagger

import (
	"github.com/bogem/id3v2"

	"github.com/yleoer/cuesplit/pkg/cuesheet"
)

// id3 帧与标签键的对应关系
var id3Frames = []struct {
	frame string
	key   string
}{
	{"TIT2", cuesheet.TagTitle},
	{"TPE1", cuesheet.TagArtist},
	{"TPE2", cuesheet.TagAlbumArtist},
	{"TALB", cuesheet.TagAlbum},
	{"TRCK", cuesheet.TagTrack},
	{"TEXT", cuesheet.TagLyricist},
	{"TSRC", cuesheet.TagISRC},
}

func writeID3(path string, tags map[string]string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	for _, f := range id3Frames {
		tag.DeleteFrames(f.frame)
		if v := tags[f.key]; v != "" {
			tag.AddTextFrame(f.frame, id3v2.EncodingUTF8, v)
		}
	}
	return tag.Save()
}
