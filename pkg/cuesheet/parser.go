package cuesheet

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yleoer/cuesplit/pkg/util"
)

// parseState 表示解析器当前所处的上下文
type parseState int

const (
	stateIdle    parseState = iota // 尚未遇到 FILE
	stateInFile                    // FILE 已打开，没有未提交的 TRACK
	stateInTrack                   // FILE 与 TRACK 均已打开
)

// parser 持有正在构建的 File/Track，遇到 FILE、TRACK 或输入结束时提交
type parser struct {
	sheet *CueSheet
	state parseState
	file  *File
	track *Track
	line  int
}

// ParseFile 读取并解析一个 .cue 文件，自动处理 UTF-8 BOM 与 GBK 编码
func ParseFile(path string) (*CueSheet, error) {
	content, err := util.ReadTextFileContent(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CUE file with encoding detection: %w", err)
	}
	return ParseReader(strings.NewReader(content))
}

// ParseReader 按行读取并解析 CUE 内容
func ParseReader(r io.Reader) (*CueSheet, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return Parse(lines)
}

// Parse 把一组文本行解析为 CueSheet
func Parse(lines []string) (*CueSheet, error) {
	p := &parser{sheet: &CueSheet{}}
	for i, raw := range lines {
		p.line = i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if err := p.parseLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", p.line, line, err)
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.sheet, nil
}

func (p *parser) parseLine(line string) error {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return fmt.Errorf("%w: no data after command", ErrMalformed)
	}
	command, data := line[:i], strings.TrimSpace(line[i+1:])

	switch command {
	case "CATALOG":
		p.sheet.Catalog = data
	case "CDTEXTFILE":
		p.sheet.CDTextFile = data
	case "TITLE":
		title := unquote(data)
		if p.state == stateInTrack {
			p.track.Title = title
		} else {
			p.sheet.Title = title
		}
	case "PERFORMER":
		performer := unquote(data)
		if p.state == stateInTrack {
			p.track.Performer = performer
		}
		p.sheet.Performer = performer
	case "SONGWRITER":
		songwriter := unquote(data)
		if p.state == stateInTrack {
			p.track.Songwriter = songwriter
		}
		p.sheet.Songwriter = songwriter
	case "FILE":
		return p.parseFile(data)
	case "TRACK":
		return p.parseTrack(data)
	case "FLAGS":
		track, err := p.currentTrack(command)
		if err != nil {
			return err
		}
		track.Flags = strings.Fields(data)
	case "ISRC":
		track, err := p.currentTrack(command)
		if err != nil {
			return err
		}
		track.ISRC = data
	case "PREGAP", "POSTGAP":
		track, err := p.currentTrack(command)
		if err != nil {
			return err
		}
		tc, err := ParseTimecode(data)
		if err != nil {
			return err
		}
		if command == "PREGAP" {
			track.Pregap = &tc
		} else {
			track.Postgap = &tc
		}
	case "INDEX":
		return p.parseIndex(data)
	default:
		// REM 以及不认识的命令一律忽略
	}
	return nil
}

func (p *parser) parseFile(data string) error {
	if p.state != stateIdle {
		if err := p.commitFile(); err != nil {
			return err
		}
	}
	i := strings.LastIndex(data, " ")
	if i < 0 {
		return fmt.Errorf("%w: FILE expects a name and a type", ErrMalformed)
	}
	name := strings.TrimSpace(unquote(data[:i]))
	if name == "" {
		return fmt.Errorf("%w: FILE name is empty", ErrMalformed)
	}
	p.file = &File{Name: name, Type: data[i+1:]}
	p.state = stateInFile
	return nil
}

func (p *parser) parseTrack(data string) error {
	switch p.state {
	case stateIdle:
		return fmt.Errorf("%w: TRACK before FILE", ErrMalformed)
	case stateInTrack:
		if err := p.commitTrack(); err != nil {
			return err
		}
	}
	fields := strings.Fields(data)
	if len(fields) != 2 {
		return fmt.Errorf("%w: TRACK expects a number and a type, got %d fields", ErrMalformed, len(fields))
	}
	number, err := strconv.Atoi(fields[0])
	if err != nil || number <= 0 {
		return fmt.Errorf("%w: invalid track number %q", ErrMalformed, fields[0])
	}
	p.track = &Track{Number: number, Type: fields[1]}
	p.state = stateInTrack
	return nil
}

func (p *parser) parseIndex(data string) error {
	track, err := p.currentTrack("INDEX")
	if err != nil {
		return err
	}
	fields := strings.Fields(data)
	if len(fields) != 2 {
		return fmt.Errorf("%w: INDEX expects a number and a timecode, got %d fields", ErrMalformed, len(fields))
	}
	number, err := strconv.Atoi(fields[0])
	if err != nil || number < 0 {
		return fmt.Errorf("%w: invalid index number %q", ErrMalformed, fields[0])
	}
	position, err := ParseTimecode(fields[1])
	if err != nil {
		return err
	}
	track.Indexes = append(track.Indexes, Index{Number: number, Position: position})
	return nil
}

func (p *parser) currentTrack(command string) (*Track, error) {
	if p.state != stateInTrack {
		return nil, fmt.Errorf("%w: %s outside of a TRACK", ErrMalformed, command)
	}
	return p.track, nil
}

// commitTrack 把当前 Track 移入当前 File
func (p *parser) commitTrack() error {
	if len(p.track.Indexes) == 0 {
		return fmt.Errorf("%w: track %d has no INDEX", ErrMalformed, p.track.Number)
	}
	p.file.Tracks = append(p.file.Tracks, p.track)
	p.track = nil
	p.state = stateInFile
	return nil
}

// commitFile 提交未完成的 Track，再把当前 File 移入 CueSheet
func (p *parser) commitFile() error {
	if p.state == stateInTrack {
		if err := p.commitTrack(); err != nil {
			return err
		}
	}
	if len(p.file.Tracks) == 0 {
		return fmt.Errorf("%w: file %q has no TRACK", ErrMalformed, p.file.Name)
	}
	p.sheet.Files = append(p.sheet.Files, p.file)
	p.file = nil
	p.state = stateIdle
	return nil
}

func (p *parser) finish() error {
	if p.state == stateIdle {
		return fmt.Errorf("%w: no FILE found", ErrMalformed)
	}
	if err := p.commitFile(); err != nil {
		return fmt.Errorf("end of input: %w", err)
	}
	return nil
}

// unquote 去掉所有双引号，CUE 中没有转义规则
func unquote(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
