package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/yleoer/cuesplit/pkg/config"
	"github.com/yleoer/cuesplit/pkg/converter"
	"github.com/yleoer/cuesplit/pkg/database"
	"github.com/yleoer/cuesplit/pkg/encoder"
	"github.com/yleoer/cuesplit/pkg/processor"
	"github.com/yleoer/cuesplit/pkg/scanner"
	"github.com/yleoer/cuesplit/pkg/scheduler"
	"github.com/yleoer/cuesplit/pkg/segment"
	"github.com/yleoer/cuesplit/pkg/tagger"
	"github.com/yleoer/cuesplit/pkg/util"
)

// cliOptions 是解析并校验后的命令行参数
type cliOptions struct {
	input  string
	output string
	watch  bool
	opts   processor.Options
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cli, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "cuesplit: %v\n", err)
		return 1
	}

	// 1. 初始化日志器
	logger := log.New(stdout, "[cuesplit] ", log.LstdFlags|log.Lshortfile)

	// 2. 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Printf("ERROR: Failed to load configuration: %v", err)
		return 1
	}
	naming, err := segment.ParseNaming(cfg.Naming)
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return 1
	}
	cli.opts.Segment.Naming = naming

	// 3. 初始化依赖服务
	proc, err := newProcessor(cfg, logger)
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := os.Stat(cli.input)
	if err != nil {
		logger.Printf("ERROR: Input %s: %v", cli.input, err)
		return 1
	}
	if !info.IsDir() {
		if _, err := proc.ProcessCueFile(ctx, cli.input, cli.output, cli.opts); err != nil {
			logger.Printf("ERROR: %v", err)
			return 1
		}
		return 0
	}

	// 4. 目录输入：批量或监听
	var store database.CueStore
	if cfg.NeedsStore(cli.watch) {
		if err := cfg.EnsureDataDir(); err != nil {
			logger.Printf("ERROR: %v", err)
			return 1
		}
		if store, err = database.NewSQLiteStore(cfg.DBPath, logger); err != nil {
			logger.Printf("ERROR: Failed to initialize database: %v", err)
			return 1
		}
		defer store.Close()
	}
	ts := scheduler.NewTaskScheduler(cfg, store, scanner.NewCueScanner(logger), proc, cli.opts, logger)

	if cli.watch {
		if err := ts.Watch(ctx, cli.input, cli.output); err != nil {
			logger.Printf("ERROR: %v", err)
			return 1
		}
		return 0
	}
	if _, err := ts.Batch(ctx, cli.input, cli.output); err != nil {
		logger.Printf("ERROR: %v", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := pflag.NewFlagSet("cuesplit", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: cuesplit [flags] <input> <output>")
		fmt.Fprintln(stderr, "  input   a .cue file, or a folder containing subfolders with cuesheets")
		fmt.Fprintln(stderr, "  output  folder for exported files")
		fs.PrintDefaults()
	}

	separate := fs.BoolP("separate-indexes", "s", false, "export indexes as separate files")
	hidden := fs.BoolP("hidden-track", "t", false, "detect and extract a hidden track in the pregap of track 1")
	pregap := fs.StringP("pregap", "p", "end", "pregap handling: skip, start or end")
	format := fs.StringP("format", "f", "flac", "output format: wav, flac or mp3")
	watch := fs.BoolP("watch", "w", false, "keep watching the input folder for new cuesheets")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, fmt.Errorf("expected <input> and <output>, got %d arguments", fs.NArg())
	}

	policy, err := segment.ParsePregapPolicy(*pregap)
	if err != nil {
		return nil, err
	}
	outFormat, err := encoder.ParseFormat(*format)
	if err != nil {
		return nil, err
	}

	cli := &cliOptions{
		input:  fs.Arg(0),
		output: fs.Arg(1),
		watch:  *watch,
		opts: processor.Options{
			Segment: segment.Options{
				Policy:          policy,
				SeparateIndexes: *separate,
				HiddenTrack:     *hidden,
			},
			Format: outFormat,
		},
	}
	if !util.IsDirectory(cli.input) {
		if cli.watch {
			return nil, fmt.Errorf("--watch needs a folder, got %s", cli.input)
		}
		if !util.IsCueSheet(cli.input) {
			return nil, fmt.Errorf("%w: %s", processor.ErrNotCuesheet, cli.input)
		}
	}
	return cli, nil
}

func newProcessor(cfg *config.Config, logger *log.Logger) (*processor.Processor, error) {
	enc, err := encoder.New(cfg.Encoder, cfg.FFmpegPath, logger)
	if err != nil {
		return nil, err
	}

	var tg processor.Tagger
	if cfg.NativeTags {
		tg = tagger.New(logger)
	}

	var tc converter.TextConverter
	if cfg.ConvertT2S {
		if tc, err = converter.NewOpenCCConverter(logger); err != nil {
			return nil, err
		}
	}

	logger.Printf("Configuration loaded: Encoder=%s, NativeTags=%t, Naming=%s, MaxConcurrentFiles=%d",
		cfg.Encoder, cfg.NativeTags, cfg.Naming, cfg.MaxConcurrentFiles)
	return processor.New(enc, tg, tc, cfg.MaxConcurrentFiles, logger), nil
}
