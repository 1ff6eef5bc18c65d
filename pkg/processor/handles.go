package processor

import (
	"fmt"
	"os"

	"github.com/yleoer/cuesplit/pkg/segment"
)

type openFile struct {
	f    *os.File
	size uint64
}

// handleSet 在一个任务组内按需打开镜像文件，每个文件只打开一次
type handleSet struct {
	src   segment.DirSource
	files map[string]*openFile
}

func newHandleSet(src segment.DirSource) *handleSet {
	return &handleSet{src: src, files: make(map[string]*openFile)}
}

func (h *handleSet) get(name string) (*openFile, error) {
	if of, ok := h.files[name]; ok {
		return of, nil
	}
	f, err := os.Open(h.src.Path(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", segment.ErrSourceRead, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", segment.ErrSourceRead, err)
	}
	of := &openFile{f: f, size: uint64(info.Size())}
	h.files[name] = of
	return of, nil
}

// read 读取一个区间，文件缺失或区间越界时返回 ErrSourceRead
func (h *handleSet) read(r segment.Range) ([]byte, error) {
	of, err := h.get(r.File)
	if err != nil {
		return nil, err
	}
	length, err := r.Resolve(of.size)
	if err != nil {
		return nil, err
	}
	return segment.ReadSection(of.f, of.size, r.File, r.Offset, length)
}

func (h *handleSet) close() {
	for name, of := range h.files {
		of.f.Close()
		delete(h.files, name)
	}
}
