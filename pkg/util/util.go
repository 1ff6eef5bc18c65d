package util

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTextFileContent 读取文本文件，自动处理 UTF-8 BOM 与 GBK 编码，返回 UTF-8 字符串
func ReadTextFileContent(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return DecodeText(data, filepath.Base(path))
}

// DecodeText 把原始字节解码为 UTF-8。非法 UTF-8 按 GBK 处理，这是中文 CUE 最常见的编码
func DecodeText(data []byte, name string) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	gbkReader := transform.NewReader(bytes.NewReader(data), simplifiedchinese.GBK.NewDecoder())
	decoded, err := io.ReadAll(gbkReader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s as GBK: %w", name, err)
	}
	return string(decoded), nil
}

// SanitizeFileName 清理文件名中不能出现在路径里的字符
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	for _, char := range []string{":", "*", "?", "\"", "<", ">", "|"} {
		name = strings.ReplaceAll(name, char, "")
	}
	name = strings.Join(strings.Fields(name), " ")
	return name
}

// IsDirectory 检查路径是否为目录
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsCueSheet 判断文件扩展名是否为 .cue（不区分大小写）
func IsCueSheet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cue")
}

// IsRelevantImageFile 判断文件是否与 CUE 转换相关：CUE 本身或常见的原始镜像文件
func IsRelevantImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".bin", ".img", ".raw", ".wav", ".cdda":
		return true
	default:
		return false
	}
}
