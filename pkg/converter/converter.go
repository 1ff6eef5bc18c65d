package converter

import "github.com/yleoer/cuesplit/pkg/cuesheet"

// TextConverter 定义文本转换器接口
type TextConverter interface {
	TradToSim(text string) string // 将繁体中文转换为简体
}

// ConvertTags 返回转换后的新标签表，轨号等非文本字段原样保留
func ConvertTags(tc TextConverter, tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if tc == nil || k == cuesheet.TagTrack || k == cuesheet.TagISRC {
			out[k] = v
			continue
		}
		out[k] = tc.TradToSim(v)
	}
	return out
}
