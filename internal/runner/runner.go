// Package runner executes a parsed kouka command line.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/arloliu/kouka/compress"
	"github.com/arloliu/kouka/extract"
	"github.com/arloliu/kouka/internal/config"
	"github.com/arloliu/kouka/ollama"
	"github.com/arloliu/kouka/stream"
)

// Runner runs one kouka invocation against the given streams.
type Runner struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger

	errorColor *color.Color
	labelColor *color.Color
}

// New creates a Runner. Colors are used only when stderr is a terminal and
// the configuration does not disable them.
func New(cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) *Runner {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(cfg.Level())

	useColor := !cfg.NoColor && isTerminal(stderr)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableColors: !useColor})
	}

	r := &Runner{
		cfg:        cfg,
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		log:        log,
		errorColor: color.New(color.FgRed, color.Bold),
		labelColor: color.New(color.FgCyan),
	}
	if useColor {
		r.errorColor.EnableColor()
		r.labelColor.EnableColor()
	} else {
		r.errorColor.DisableColor()
		r.labelColor.DisableColor()
	}

	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run executes the configured mode and returns the process exit code.
func (r *Runner) Run(ctx context.Context) int {
	var err error
	if r.cfg.Extract {
		err = r.extract()
	} else {
		err = r.generate(ctx)
	}

	if err != nil {
		r.printError(err)
		return 1
	}

	return 0
}

func (r *Runner) printError(err error) {
	var statusErr *ollama.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		fmt.Fprintf(r.stderr, "%s %s (%d)\n", r.errorColor.Sprint("error:"), statusErr.Message, statusErr.StatusCode)
		return
	}

	fmt.Fprintf(r.stderr, "%s %v\n", r.errorColor.Sprint("error:"), err)
}

func (r *Runner) generate(ctx context.Context) error {
	client, err := ollama.New(ollama.Config{
		Host:           r.cfg.Host,
		Timeout:        r.cfg.Timeout,
		RateLimit:      r.cfg.RateLimit,
		Insecure:       r.cfg.Insecure,
		CACertFile:     r.cfg.CACertFile,
		AcceptEncoding: r.cfg.AcceptEncoding,
		ReadBufferSize: r.cfg.ReadBufferSize,
		MaxBufferSize:  r.cfg.MaxBufferSize,
		DecodeUnicode:  r.cfg.DecodeUnicode,
		Logger:         r.log,
	})
	if err != nil {
		return err
	}

	var writeErr error
	result, err := client.Generate(ctx, ollama.GenerateRequest{
		Model:   r.cfg.Model,
		Prompt:  r.cfg.Prompt,
		System:  r.cfg.System,
		Options: []byte(r.cfg.Options),
	}, func(fragment string) {
		if writeErr == nil {
			_, writeErr = io.WriteString(r.stdout, fragment)
		}
	})

	if result != nil && result.Response != "" && !strings.HasSuffix(result.Response, "\n") {
		_, _ = io.WriteString(r.stdout, "\n")
	}
	if err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("write output: %w", writeErr)
	}

	if r.cfg.Stats {
		fmt.Fprintf(r.stderr, "%s %s, %d fragments, %d bytes in %s, done: %s, digest %016x\n",
			r.labelColor.Sprint("generate:"),
			result.Model,
			result.Fragments,
			result.BytesReceived,
			result.Duration.Round(time.Millisecond),
			orDash(result.DoneReason),
			result.Digest,
		)
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func (r *Runner) extract() error {
	out := bufio.NewWriter(r.stdout)

	// Values read from stdin are flushed as they complete.
	var live bool
	var writeErr error
	ext, err := extract.New(r.cfg.Key, func(value []byte, _ any) {
		if writeErr != nil {
			return
		}
		if _, writeErr = out.Write(value); writeErr == nil {
			writeErr = out.WriteByte('\n')
		}
		if writeErr == nil && live {
			writeErr = out.Flush()
		}
	}, r.extractorOptions()...)
	if err != nil {
		return err
	}

	var streamOpts []stream.Option
	if r.cfg.ReadBufferSize > 0 {
		streamOpts = append(streamOpts, stream.WithReadSize(r.cfg.ReadBufferSize))
	}
	if r.cfg.MaxBufferSize > 0 {
		streamOpts = append(streamOpts, stream.WithMaxSize(r.cfg.MaxBufferSize))
	}

	acc, err := stream.New(ext, streamOpts...)
	if err != nil {
		return err
	}
	defer acc.Close()

	for _, name := range r.cfg.Inputs {
		live = name == "-"
		if err := r.extractInput(acc, name); err != nil {
			_ = out.Flush()
			return err
		}
		if writeErr != nil {
			return fmt.Errorf("write output: %w", writeErr)
		}

		stats := ext.Stats()
		r.log.WithFields(logrus.Fields{
			"input":     name,
			"bytes":     acc.Total(),
			"emitted":   stats.Emitted,
			"truncated": stats.TruncatedValues,
		}).Debug("input processed")

		if r.cfg.Stats {
			fmt.Fprintf(r.stderr, "%s %s, %d values, %d bytes, %d truncated, digest %016x\n",
				r.labelColor.Sprint("extract:"),
				name,
				stats.Emitted,
				acc.Total(),
				stats.TruncatedValues,
				acc.Sum64(),
			)
		}

		// Each input is an independent stream.
		acc.Reset()
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func (r *Runner) extractInput(acc *stream.Accumulator, name string) error {
	var src io.Reader = r.stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	body, err := compress.NewChainReader(r.cfg.Codecs, src)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer body.Close()

	if _, err := acc.ReadFrom(body); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}

func (r *Runner) extractorOptions() []extract.Option {
	if !r.cfg.DecodeUnicode {
		return nil
	}

	return []extract.Option{extract.WithUnicodeDecoder(extract.NewUTF16Decoder())}
}
