package cuesheet

import "fmt"

// 导出标签使用的键名
const (
	TagTrack       = "track"
	TagAlbum       = "album"
	TagAlbumArtist = "album_artist"
	TagLyricist    = "lyricist"
	TagTitle       = "title"
	TagArtist      = "artist"
	TagISRC        = "isrc"
)

// GetTags 为编号为 trackNumber 的轨道生成标签。专辑级字段先写入，轨道级字段覆盖其后。
// CATALOG 不导出。找不到轨道时返回空 map。
func GetTags(sheet *CueSheet, trackNumber int) map[string]string {
	tags := make(map[string]string)

	var track *Track
	total := 0
	for _, f := range sheet.Files {
		for _, t := range f.Tracks {
			total++
			if track == nil && t.Number == trackNumber {
				track = t
			}
		}
	}
	if track == nil {
		return tags
	}

	tags[TagTrack] = fmt.Sprintf("%d/%d", trackNumber, total)
	setTag(tags, TagAlbum, sheet.Title)
	setTag(tags, TagAlbumArtist, sheet.Performer)
	setTag(tags, TagLyricist, sheet.Songwriter)
	setTag(tags, TagTitle, track.Title)
	setTag(tags, TagArtist, track.Performer)
	setTag(tags, TagLyricist, track.Songwriter)
	setTag(tags, TagISRC, track.ISRC)
	return tags
}

func setTag(tags map[string]string, key, value string) {
	if value != "" {
		tags[key] = value
	}
}
