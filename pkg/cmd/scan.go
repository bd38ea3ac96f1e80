package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"phishjudge/pkg/common"
	"phishjudge/pkg/detector"
	"phishjudge/pkg/logger"
)

const (
	flushEvery     = 100
	dedupFalsePos  = 0.0001
	dedupMinExpect = 1000
)

type checker interface {
	Check(ctx context.Context, rawURL string) (*detector.Verdict, error)
}

type scanOptions struct {
	Workers int
	// Output is the CSV path verdicts are appended to; empty disables CSV.
	Output string
	// JSON prints every verdict to Stdout.
	JSON     bool
	Stdout   io.Writer
	Progress io.Writer
}

type scanSummary struct {
	Seeds      int
	Duplicates int
	Checked    int
	Phishing   int
	Failed     int
}

type scanResult struct {
	seed    Seed
	verdict *detector.Verdict
	err     error
}

func scanCommand() *cobra.Command {
	var (
		input         string
		phishtank     string
		labelPhishing bool
		opts          scanOptions
	)
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Classify a batch of URLs on a worker pool and append verdicts to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			var label *bool
			if labelPhishing {
				label = &labelPhishing
			}

			seeds := labelled(args, label)
			if input != "" {
				urls, err := ReadURLsFromFile(input)
				if err != nil {
					return fmt.Errorf("read %s: %w", input, err)
				}
				seeds = append(seeds, labelled(urls, label)...)
			}
			if phishtank != "" {
				pt, err := ReadPhishTankFile(phishtank)
				if err != nil {
					return fmt.Errorf("read %s: %w", phishtank, err)
				}
				seeds = append(seeds, pt...)
			}
			if len(seeds) == 0 {
				return errors.New("nothing to scan: pass URLs, --input or --phishtank")
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			opts.Stdout = cmd.OutOrStdout()
			opts.Progress = cmd.ErrOrStderr()
			summary, err := runScan(cmd.Context(), a.detector, seeds, opts, a.log)
			a.log.Info("scan finished",
				logger.Int("seeds", summary.Seeds),
				logger.Int("duplicates", summary.Duplicates),
				logger.Int("checked", summary.Checked),
				logger.Int("phishing", summary.Phishing),
				logger.Int("failed", summary.Failed),
				logger.String("output", opts.Output),
			)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "file with one URL per line")
	flags.StringVar(&phishtank, "phishtank", "", "PhishTank CSV export; verified, online rows are labelled phishing")
	flags.BoolVar(&labelPhishing, "label-phishing", false, "label URLs from arguments and --input as phishing")
	flags.StringVarP(&opts.Output, "output", "o", "verdicts.csv", "CSV file verdicts are appended to (empty disables)")
	flags.IntVarP(&opts.Workers, "workers", "w", 20, "number of concurrent workers")
	flags.BoolVar(&opts.JSON, "json", false, "also print every verdict as JSON to stdout")
	return cmd
}

// dedupe drops seeds whose canonical URL was already seen. A Bloom filter can
// report a false positive, so a rare distinct URL may be dropped too.
func dedupe(seeds []Seed) ([]Seed, int) {
	filter := bloom.NewWithEstimates(uint(max(len(seeds), dedupMinExpect)), dedupFalsePos)
	unique := make([]Seed, 0, len(seeds))
	dups := 0
	for _, s := range seeds {
		if filter.TestAndAdd([]byte(common.CanonicalizeRaw(s.URL))) {
			dups++
			continue
		}
		unique = append(unique, s)
	}
	return unique, dups
}

func worker(ctx context.Context, id int, c checker, jobs <-chan Seed, results chan<- scanResult, wg *sync.WaitGroup, log logger.Logger) {
	defer wg.Done()
	for seed := range jobs {
		verdict, err := c.Check(ctx, seed.URL)
		if err != nil {
			log.Warn("check failed",
				logger.Int("worker", id),
				logger.String("url", seed.URL),
				logger.Error(err),
			)
		} else {
			verdict.Truth = seed.Label
		}
		results <- scanResult{seed: seed, verdict: verdict, err: err}
	}
}

func runScan(ctx context.Context, c checker, seeds []Seed, opts scanOptions, log logger.Logger) (summary scanSummary, err error) {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	summary.Seeds = len(seeds)
	seeds, summary.Duplicates = dedupe(seeds)

	var out *CSVWriter
	if opts.Output != "" {
		w, isNew, err := NewCSVWriter(opts.Output)
		if err != nil {
			return summary, err
		}
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		if isNew {
			if err := w.WriteRow(detector.CSVHeader()); err != nil {
				return summary, fmt.Errorf("write CSV header: %w", err)
			}
		}
		out = w
	}

	progress := mpb.NewWithContext(ctx, mpb.WithOutput(opts.Progress), mpb.WithWidth(48))
	total := int64(len(seeds))
	checkedBar := progress.AddBar(total,
		mpb.PrependDecorators(decor.Name("checked", decor.WCSyncSpaceR)),
		mpb.AppendDecorators(
			decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WCSyncSpace), "done"),
		),
	)
	phishBar := progress.AddBar(total,
		mpb.PrependDecorators(decor.Name("phishing", decor.WCSyncSpaceR)),
		mpb.AppendDecorators(decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth)),
	)

	jobs := make(chan Seed)
	results := make(chan scanResult)
	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for w := 1; w <= opts.Workers; w++ {
		go worker(ctx, w, c, jobs, results, &wg, log)
	}

	go func() {
		defer close(jobs)
		for _, s := range seeds {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var writeErr error
	for res := range results {
		checkedBar.Increment()
		if res.err != nil {
			summary.Failed++
			continue
		}
		summary.Checked++
		if res.verdict.Phishing() {
			summary.Phishing++
			phishBar.Increment()
		}

		if out != nil && writeErr == nil {
			writeErr = out.WriteRow(res.verdict.ToCSVRow())
			if writeErr == nil && summary.Checked%flushEvery == 0 {
				writeErr = out.Flush()
			}
		}
		if opts.JSON {
			data, _ := json.MarshalIndent(res.verdict.Response(), "", "  ")
			fmt.Fprintln(opts.Stdout, string(data))
		}
	}

	checkedBar.SetTotal(-1, true)
	phishBar.SetTotal(-1, true)
	progress.Wait()

	if writeErr != nil {
		return summary, fmt.Errorf("write CSV row: %w", writeErr)
	}
	return summary, ctx.Err()
}
