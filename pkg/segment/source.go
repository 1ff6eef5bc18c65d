package segment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrSourceRead 镜像文件不可读，或计算出的字节范围超出文件长度
var ErrSourceRead = errors.New("source read error")

// Source 提供镜像文件的长度与按范围读取，文件名为 CUE 中的相对路径
type Source interface {
	Size(name string) (uint64, error)
	ReadRange(name string, offset, length uint64) ([]byte, error)
}

// DirSource 以 CUE 文件所在目录解析相对路径
type DirSource struct {
	Dir string
}

// Path 返回镜像文件的完整路径
func (s DirSource) Path(name string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(name))
}

func (s DirSource) Size(name string) (uint64, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceRead, err)
	}
	return uint64(info.Size()), nil
}

func (s DirSource) ReadRange(name string, offset, length uint64) ([]byte, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceRead, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceRead, err)
	}
	return ReadSection(f, uint64(info.Size()), name, offset, length)
}

// ReadSection 从已打开的文件中读取 [offset, offset+length)，越界时报错而不是截断或补零
func ReadSection(r io.ReaderAt, size uint64, name string, offset, length uint64) ([]byte, error) {
	if offset > size || length > size-offset {
		return nil, fmt.Errorf("%w: %s: range %d+%d exceeds file size %d", ErrSourceRead, name, offset, length, size)
	}
	buf := make([]byte, length)
	n, err := r.ReadAt(buf, int64(offset))
	if uint64(n) < length {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, name, err)
	}
	return buf, nil
}
