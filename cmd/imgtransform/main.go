// Command imgtransform resizes, rotates, auto-orients or identifies a single
// image file.
//
//	imgtransform [flags] input output resize WIDTH HEIGHT CROP AUTO_ORIENT
//	imgtransform [flags] input output rotate DEGREES
//	imgtransform [flags] input output autorotate
//	imgtransform [flags] identify input
//
// output may end in ":QUALITY" (1-100).  CROP and AUTO_ORIENT are 0 or 1.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	imagetransform "github.com/Skryldev/image-transform"
	"github.com/Skryldev/image-transform/config"
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("imgtransform", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML configuration file")
	logLevel := fs.String("log-level", "", "override log level (debug, info, warn, error)")
	lossless := fs.Bool("lossless", false, "encode WebP and AVIF output losslessly")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	proc, err := imagetransform.New(cfg, imagetransform.WithLogOutput(stderr))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	proc.Start()
	defer proc.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rest := fs.Args()
	if len(rest) >= 1 && rest[0] == "identify" {
		err = identify(ctx, proc, rest[1:], stdout)
	} else {
		err = convert(ctx, proc, rest, *lossless)
	}
	switch {
	case errors.Is(err, errUsage):
		fs.Usage()
		return 1
	case err != nil:
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func identify(ctx context.Context, proc *imagetransform.Processor, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	meta, err := proc.Identify(ctx, args[0])
	if err != nil {
		return fmt.Errorf("identify failed: %w", err)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func convert(ctx context.Context, proc *imagetransform.Processor, args []string, lossless bool) error {
	if len(args) < 3 {
		return errUsage
	}
	in, out, cmd, opts := args[0], args[1], args[2], args[3:]

	var req imagetransform.Request
	switch cmd {
	case "resize":
		if len(opts) != 4 {
			return errUsage
		}
		n, err := ints(opts)
		if err != nil {
			return errUsage
		}
		req = imagetransform.ResizeRequest(in, out, n[0], n[1], n[2] != 0, n[3] != 0)
	case "rotate":
		if len(opts) != 1 {
			return errUsage
		}
		deg, err := strconv.Atoi(opts[0])
		if err != nil {
			return errUsage
		}
		req = imagetransform.RotateRequest(in, out, deg)
	case "autorotate":
		if len(opts) != 0 {
			return errUsage
		}
		req = imagetransform.AutoOrientRequest(in, out)
	default:
		return errUsage
	}

	req.Lossless = lossless
	if _, err := proc.Transform(ctx, req); err != nil {
		return fmt.Errorf("%s failed: %w", cmd, err)
	}
	return nil
}

func ints(ss []string) ([]int, error) {
	out := make([]int, len(ss))
	for i, s := range ss {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprint(w, strings.TrimLeft(`
usage: imgtransform [flags] input output command [options]
       imgtransform [flags] identify input
command is one of:
  resize WIDTH HEIGHT CROP AUTO_ORIENT
  rotate DEGREES            (0, 90, 180 or 270, clockwise)
  autorotate                rotate according to EXIF and drop it
output may end in :QUALITY to set the encode quality (1-100).
flags:
`, "\n"))
	fs.PrintDefaults()
}
