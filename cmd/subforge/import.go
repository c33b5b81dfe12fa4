package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"subforge/internal/collectors"
	"subforge/internal/config"
	"subforge/internal/importer"
	"subforge/internal/link"
	"subforge/internal/logger"
	"subforge/internal/store"
)

var (
	importParams     map[string]string
	importCollectors []string
)

// importJob is one text source: an ad hoc argument or a configured collector.
type importJob struct {
	name   string
	kind   string
	params map[string]interface{}
	stdin  bool
}

type importSummary struct {
	name   string
	result importer.Result
	report store.Report
	err    error
}

var importCmd = &cobra.Command{
	Use:   "import [sources...]",
	Short: "Import proxies from links, files, URLs and collectors",
	Long: `Import proxy descriptors into the store. A source is a file path, an
http(s) subscription URL, or "-" for stdin. Without sources every collector
defined in config runs; --collectors picks configured collectors by name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		jobs := importJobs(a.cfg, args, importCollectors, importParams)
		if len(jobs) == 0 {
			logger.Log.Warn("Nothing to import: no sources given and no collectors matched.")
			return nil
		}

		bar := progressbar.NewOptions(len(jobs),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("[cyan]Importing...[reset]"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
		summaries := runImport(cmd.Context(), a, jobs, cmd.InOrStdin(), func() { _ = bar.Add(1) })
		_ = bar.Finish()

		printImportSummary(cmd.OutOrStdout(), summaries)
		return nil
	},
}

// importJobs turns arguments into ad hoc jobs and appends the selected
// configured collectors. Configured collectors run when there are no
// arguments or when names are given explicitly.
func importJobs(cfg *config.Config, args, names []string, overrides map[string]string) []importJob {
	var jobs []importJob
	for _, src := range args {
		params := fetchParams(cfg, nil)
		applyParams(params, overrides)
		switch {
		case src == "-":
			jobs = append(jobs, importJob{name: "stdin", kind: "stdin", stdin: true})
		case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
			params["url"] = src
			jobs = append(jobs, importJob{name: src, kind: "http", params: params})
		default:
			params["path"] = src
			jobs = append(jobs, importJob{name: src, kind: "file", params: params})
		}
	}

	if len(args) > 0 && len(names) == 0 {
		return jobs
	}
	cfg.FilterCollectors(names)
	for _, c := range cfg.Collectors {
		params := fetchParams(cfg, c.Params)
		applyParams(params, overrides)
		jobs = append(jobs, importJob{name: c.Name, kind: c.Type, params: params})
	}
	return jobs
}

// fetchParams copies base and fills the shared fetch settings it lacks.
func fetchParams(cfg *config.Config, base map[string]interface{}) map[string]interface{} {
	params := make(map[string]interface{}, len(base)+2)
	for k, v := range base {
		params[k] = v
	}
	if _, ok := params["_timeout"]; !ok {
		params["_timeout"] = int(cfg.Fetch.Timeout.Seconds())
	}
	if _, ok := params["_proxy_url"]; !ok && cfg.Fetch.ProxyURL != "" {
		params["_proxy_url"] = cfg.Fetch.ProxyURL
	}
	return params
}

// runImport collects every job with at most fetch.workers in flight, then
// parses and stores the results in job order. done is called as each
// collection finishes.
func runImport(ctx context.Context, a *app, jobs []importJob, stdin io.Reader, done func()) []importSummary {
	summaries := make([]importSummary, len(jobs))
	chunks := make([][]string, len(jobs))

	var g errgroup.Group
	g.SetLimit(a.cfg.Fetch.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			logger.Log.Debugf("Running source %s (%s)", job.name, job.kind)
			chunks[i], summaries[i].err = collect(ctx, job, stdin)
			summaries[i].name = job.name
			if done != nil {
				done()
			}
			return nil
		})
	}
	_ = g.Wait()

	im := importer.New(a.registry, link.Default())
	for i := range summaries {
		sum := &summaries[i]
		if sum.err != nil {
			logger.Log.Errorf("Source %s failed: %v", sum.name, sum.err)
			continue
		}
		for _, chunk := range chunks[i] {
			sum.result.Merge(im.ImportFromText(chunk))
		}
		sum.report = a.store.AddBatch(sum.result.Descriptors, sum.name)
		logger.Log.Debugf("Source %s: %d parsed, %d added", sum.name, len(sum.result.Descriptors), sum.report.Added)
	}
	return summaries
}

func collect(ctx context.Context, job importJob, stdin io.Reader) ([]string, error) {
	if job.stdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return []string{string(data)}, nil
	}
	collector, err := collectors.Get(job.kind)
	if err != nil {
		return nil, err
	}
	return collector.Collect(ctx, job.params)
}

func totals(summaries []importSummary) importSummary {
	var total importSummary
	for _, s := range summaries {
		if s.err != nil {
			continue
		}
		total.result.Merge(s.result)
		total.report.Added += s.report.Added
		total.report.SkippedDuplicate += s.report.SkippedDuplicate
		total.report.SkippedInvalid += s.report.SkippedInvalid
	}
	return total
}

func printImportSummary(out io.Writer, summaries []importSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tPARSED\tADDED\tDUPLICATE\tINVALID\tUNSUPPORTED")
	row := func(name string, s importSummary) {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", name,
			len(s.result.Descriptors), s.report.Added, s.report.SkippedDuplicate,
			s.result.Invalid+s.report.SkippedInvalid, s.result.Unsupported)
	}
	for _, s := range summaries {
		if s.err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\n", s.name, s.err)
			continue
		}
		row(s.name, s)
	}
	if len(summaries) > 1 {
		row("total", totals(summaries))
	}
	w.Flush()
}

func init() {
	importCmd.Flags().StringToStringVarP(&importParams, "param", "p", nil, "Override collector params (e.g. -p limit=200)")
	importCmd.Flags().StringSliceVar(&importCollectors, "collectors", nil, "Run only the named configured collectors")
	rootCmd.AddCommand(importCmd)
}
