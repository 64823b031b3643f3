package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"dreamscape/internal/download"
	"dreamscape/internal/imagegen"
	"dreamscape/internal/infra"
	"dreamscape/internal/matcher"
	"dreamscape/internal/storage"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		exitWithError(err)
	}
}

type options struct {
	prompt   string
	negative string
	n        int
	size     string
	model    string
	explain  bool
	top      int
	out      string
	seed     int64
	latency  time.Duration
	asJSON   bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("dreamscape", flag.ContinueOnError)
	fs.StringVar(&opts.prompt, "prompt", "", "text prompt (remaining arguments are used when empty)")
	fs.StringVar(&opts.negative, "negative", "", "negative prompt")
	fs.IntVar(&opts.n, "n", 1, fmt.Sprintf("number of images (1-%d)", imagegen.MaxImages))
	fs.StringVar(&opts.size, "size", imagegen.Sizes[0].Value, "output size WIDTHxHEIGHT")
	fs.StringVar(&opts.model, "model", imagegen.Models[0].Value, "model identifier")
	fs.BoolVar(&opts.explain, "explain", false, "print the matcher diagnostics instead of generating")
	fs.IntVar(&opts.top, "top", 5, "categories shown by -explain (0 shows all)")
	fs.StringVar(&opts.out, "out", "", "download generated images into this directory")
	fs.Int64Var(&opts.seed, "seed", -1, "seed for fallback picks and image seeds (negative means random)")
	fs.DurationVar(&opts.latency, "latency", 0, "simulated generation latency")
	fs.BoolVar(&opts.asJSON, "json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if strings.TrimSpace(opts.prompt) == "" {
		opts.prompt = strings.Join(fs.Args(), " ")
	}
	if opts.latency < 0 {
		return opts, errors.New("-latency must not be negative")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "dreamscape").Logger()

	cat, err := infra.LoadCatalog(cfg)
	if err != nil {
		return err
	}

	mopts := []matcher.Option{matcher.WithWeights(cfg.MatchWeights)}
	var seeds matcher.Source
	if opts.seed >= 0 {
		seeds = matcher.Locked(rand.New(rand.NewPCG(uint64(opts.seed), uint64(opts.seed))))
		mopts = append(mopts, matcher.WithRand(seeds))
	}
	m, err := matcher.New(cat, mopts...)
	if err != nil {
		return err
	}
	svc := imagegen.NewService(m, imagegen.Options{
		BaseURL: cfg.ImageBaseURL,
		Latency: opts.latency,
		Logger:  logger,
		Seeds:   seeds,
	})

	if opts.explain {
		return printExplain(stdout, svc.Explain(opts.prompt), opts)
	}

	gen, err := svc.Generate(ctx, imagegen.GenerateRequest{
		Prompt:         opts.prompt,
		NegativePrompt: opts.negative,
		Model:          opts.model,
		Size:           opts.size,
		NumImages:      opts.n,
	})
	if err != nil {
		return err
	}

	var saved []string
	if opts.out != "" {
		dl := download.New(download.Options{
			Timeout:      cfg.DownloadTimeout,
			MaxBytes:     cfg.DownloadMaxBytes,
			AllowedHosts: cfg.ImageSourceAllowlist,
		})
		saved, err = saveImages(ctx, dl, opts.out, gen)
		if err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(gen)
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCATEGORY\tIMAGE\tSEED\tURL")
	for i, img := range gen.Images {
		category := img.Category
		if img.Fallback {
			category += " (random)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", i+1, category, img.ImageID, img.Seed, img.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, p := range saved {
		fmt.Fprintf(stdout, "saved %s\n", p)
	}
	return nil
}

func saveImages(ctx context.Context, dl *download.Downloader, dir string, gen *imagegen.Generation) ([]string, error) {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(gen.Images))
	for _, img := range gen.Images {
		f, err := dl.Fetch(ctx, img.URL)
		if err != nil {
			return paths, fmt.Errorf("download image %d: %w", img.ImageID, err)
		}
		p, err := store.Write(ctx, path.Join(gen.ID, img.Filename()), f.Data)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func printExplain(w io.Writer, res matcher.Result, opts options) error {
	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Fallback {
		fmt.Fprintf(w, "no keyword matched, random pick: image %d (%s)\n", res.ImageID, res.Category)
	} else {
		fmt.Fprintf(w, "image %d (%s)\n", res.ImageID, res.Category)
	}
	scores := res.Scores
	if opts.top > 0 {
		scores = res.Top(opts.top)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSCORE\tRAW\tMATCHES\tBEST")
	for _, s := range scores {
		best := "-"
		if s.BestID != nil {
			best = fmt.Sprintf("%d (%.2f)", *s.BestID, s.BestScore)
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%d/%d\t%s\n", s.Name, s.Score, s.Raw, s.Matches, s.Entries, best)
	}
	return tw.Flush()
}

func exitWithError(err error) {
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
