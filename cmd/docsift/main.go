package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/client"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/entity"
	"github.com/docsift/docsift/internal/export"
	"github.com/docsift/docsift/internal/feedback"
	"github.com/docsift/docsift/internal/jobs"
	"github.com/docsift/docsift/internal/results"
	"github.com/docsift/docsift/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *common.Config
	logger     *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "docsift",
	Short:   "Document extraction jobs, results, and exports",
	Long:    "docsift submits extraction jobs to the remote service, polls them to completion, aggregates results, records feedback, and exports CSV/XLSX.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := common.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = common.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := slog.LevelInfo
		if verbose || strings.EqualFold(cfg.Logging.Level, "DEBUG") {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(examplesCmd)
	rootCmd.AddCommand(accuracyCmd)
}

func newClient() (*client.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return client.New(cfg.Service.BaseURL, cfg.Service.Timeout, logger)
}

func openStore() (*store.Store, error) {
	return store.Open(cfg.Store.Path)
}

// signalContext is the base context for one CLI invocation: cancelled on
// interrupt, carrying a shared request id so all service calls made by
// the invocation correlate in the logs.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	return common.WithRequestID(ctx, uuid.New().String()), stop
}

var (
	submitProject string
	submitType    string
	submitDocs    []string
	submitWatch   bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Create an extraction job",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newClient()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		orch := jobs.NewOrchestrator(api, st, cfg.Poll.Interval, logger)
		jobType := constants.ParseJobType(strings.ToUpper(submitType))
		job, err := orch.Create(ctx, submitProject, jobType, submitDocs)
		if err != nil {
			return err
		}
		fmt.Printf("job %s created (%s, %d documents)\n", job.ID, job.Type, len(job.DocumentIDs))

		if submitWatch {
			return watchJob(ctx, orch, job.ID)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Poll a job until it reaches a terminal state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newClient()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		orch := jobs.NewOrchestrator(api, st, cfg.Poll.Interval, logger)
		return watchJob(ctx, orch, args[0])
	},
}

// watchJob runs the poller to a terminal status, echoing progress, and
// always tears the poller down so an interrupt cannot leak its ticker.
func watchJob(ctx context.Context, orch *jobs.Orchestrator, jobID string) error {
	done := make(chan error, 1)
	lastProgress := -1

	err := orch.Watch(ctx, jobID,
		func(job *entity.ProcessingJob) {
			if job.Progress != lastProgress {
				lastProgress = job.Progress
				fmt.Printf("%s: %s %d%% (%d/%d documents)\n",
					job.ID, job.Status, job.Progress, job.ProcessedDocuments, len(job.DocumentIDs))
			}
			if job.Status.Terminal() {
				printLogs(job.Logs)
				done <- nil
			}
		},
		func(err error) { done <- err })
	if err != nil {
		return err
	}
	defer orch.StopWatching(jobID)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func printLogs(logs []entity.JobLogEntry) {
	for _, l := range logs {
		if l.DocumentID != nil {
			fmt.Printf("  [%s] %s %s (document %s)\n", l.Level, l.Timestamp, l.Message, *l.DocumentID)
		} else {
			fmt.Printf("  [%s] %s %s\n", l.Level, l.Timestamp, l.Message)
		}
	}
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Fetch a job's current status and logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newClient()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		job, err := api.GetJob(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s %d%% (%d/%d documents)\n",
			job.ID, job.Status, job.Progress, job.ProcessedDocuments, len(job.DocumentIDs))
		printLogs(job.Logs)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Request cancellation of a running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newClient()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		orch := jobs.NewOrchestrator(api, st, cfg.Poll.Interval, logger)
		if err := orch.Cancel(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("cancellation requested; the job reports CANCELLED on a later poll")
		return nil
	},
}

var resultsRefresh bool

var resultsCmd = &cobra.Command{
	Use:   "results <job-id>",
	Short: "Show aggregated per-document results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		extractions, err := loadExtractions(ctx, st, args[0], resultsRefresh)
		if err != nil {
			return err
		}

		docs := results.Aggregate(extractions)
		for _, doc := range docs {
			flag := ""
			if doc.Flagged {
				flag = " [flagged]"
			}
			fmt.Printf("%s: %d fields, avg confidence %.1f%s\n",
				doc.DocumentName, len(doc.Data), doc.AverageConfidence, flag)
		}
		return nil
	},
}

// loadExtractions reads the cached extraction set, re-fetching from the
// service when the cache is empty or a refresh is forced.
func loadExtractions(ctx context.Context, st *store.Store, jobID string, refresh bool) ([]entity.Extraction, error) {
	if !refresh {
		cached, err := st.ListExtractions(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if len(cached) > 0 {
			return cached, nil
		}
	}

	api, err := newClient()
	if err != nil {
		return nil, err
	}
	job, err := api.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := st.UpsertJob(ctx, job); err != nil {
		return nil, err
	}
	rs, err := api.GetResults(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := st.ReplaceExtractions(ctx, jobID, rs.Extractions); err != nil {
		return nil, err
	}
	return rs.Extractions, nil
}

var (
	exportStructure  string
	exportConfidence bool
	exportSourceText bool
	exportThreshold  int
	exportFilterMode string
	exportFormat     string
	exportOut        string
)

var exportCmd = &cobra.Command{
	Use:   "export <job-id>",
	Short: "Export aggregated results as CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		extractions, err := loadExtractions(ctx, st, args[0], false)
		if err != nil {
			return err
		}
		if len(extractions) == 0 {
			return common.NotFoundf("no results cached for job %s", args[0])
		}

		opts := entity.ExportOptions{
			Structure:         constants.ExportWide,
			IncludeConfidence: exportConfidence || cfg.Export.IncludeConfidence,
			IncludeSourceText: exportSourceText || cfg.Export.IncludeSourceText,
		}
		if strings.EqualFold(exportStructure, string(constants.ExportLong)) {
			opts.Structure = constants.ExportLong
		}

		docs := results.Aggregate(extractions)
		if cmd.Flags().Changed("min-confidence") {
			if strings.EqualFold(exportFilterMode, "average") {
				docs = results.FilterByAverageConfidence(docs, exportThreshold)
			} else {
				opts.MinConfidence = &exportThreshold
			}
		}
		variables := variableOrder(extractions)

		outDir := exportOut
		if outDir == "" {
			outDir = cfg.Export.Dir
		}

		var data []byte
		ext := "csv"
		if strings.EqualFold(exportFormat, "xlsx") {
			ext = "xlsx"
			data, err = export.ToXLSX(docs, variables, opts)
		} else {
			var text string
			text, err = export.ToCSV(docs, variables, opts)
			data = []byte(text)
		}
		if err != nil {
			return err
		}

		name := export.Filename(opts, time.Now(), ext)
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		logger.Info("export.ok", "format", ext, "documents", len(docs), "path", path)
		fmt.Println("wrote", path)
		return nil
	},
}

// variableOrder derives a stable column order from first appearance in
// the extraction set, which follows the service's variable ordering.
func variableOrder(extractions []entity.Extraction) []string {
	seen := make(map[string]bool)
	var order []string
	for _, ex := range extractions {
		if !seen[ex.VariableName] {
			seen[ex.VariableName] = true
			order = append(order, ex.VariableName)
		}
	}
	return order
}

var (
	feedbackCorrect   bool
	feedbackIncorrect bool
	feedbackValue     string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <extraction-id>",
	Short: "Record a correctness judgment for an extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if feedbackCorrect == feedbackIncorrect {
			return common.InvalidRequestf("pass exactly one of --correct or --incorrect")
		}
		api, err := newClient()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		var corrected *string
		if cmd.Flags().Changed("corrected-value") {
			corrected = &feedbackValue
		}
		rec := feedback.NewRecorder(api, st, logger)
		return rec.Record(ctx, args[0], feedbackCorrect, corrected)
	},
}

var pinUseInPrompt bool

var pinCmd = &cobra.Command{
	Use:   "pin <extraction-id>",
	Short: "Promote an extraction to a golden example",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newClient()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		ex, err := st.GetExtraction(ctx, args[0])
		if err != nil {
			return err
		}
		if ex == nil {
			return common.NotFoundf("extraction %s not cached; run 'docsift results' first", args[0])
		}

		rec := feedback.NewRecorder(api, st, logger)
		example, err := rec.Pin(ctx, *ex, pinUseInPrompt)
		if err != nil {
			return err
		}
		fmt.Printf("pinned %s=%q from %s (use_in_prompt=%t)\n",
			example.VariableName, example.Value, example.DocumentName, example.UseInPrompt)
		return nil
	},
}

var examplesVariable string

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "List locally recorded golden examples",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		examples, err := st.ListGoldenExamples(ctx, examplesVariable)
		if err != nil {
			return err
		}
		for _, ex := range examples {
			prompt := ""
			if ex.UseInPrompt {
				prompt = " [prompt]"
			}
			fmt.Printf("%s=%q (%s)%s\n", ex.VariableName, ex.Value, ex.DocumentName, prompt)
		}
		return nil
	},
}

var accuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Show the accuracy over all recorded feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		m, err := st.FeedbackMap(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("accuracy: %d%% over %d judgments\n", results.CalculateAccuracy(m), len(m))
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitProject, "project", "", "Project id")
	submitCmd.Flags().StringVar(&submitType, "type", "FULL", "Job type: SAMPLE or FULL")
	submitCmd.Flags().StringArrayVar(&submitDocs, "doc", nil, "Document id (repeatable)")
	submitCmd.Flags().BoolVar(&submitWatch, "watch", false, "Poll the job to completion")
	submitCmd.MarkFlagRequired("project")

	resultsCmd.Flags().BoolVar(&resultsRefresh, "refresh", false, "Re-fetch results from the service")

	exportCmd.Flags().StringVar(&exportStructure, "structure", "wide", "Layout: wide or long")
	exportCmd.Flags().BoolVar(&exportConfidence, "confidence", false, "Include confidence columns")
	exportCmd.Flags().BoolVar(&exportSourceText, "source-text", false, "Include source text (long layout)")
	exportCmd.Flags().IntVar(&exportThreshold, "min-confidence", 0, "Drop documents with any field below this confidence")
	exportCmd.Flags().StringVar(&exportFilterMode, "filter-mode", "fields", "Threshold rule: fields (every field clears it) or average")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (defaults to export.dir)")

	feedbackCmd.Flags().BoolVar(&feedbackCorrect, "correct", false, "Mark the extraction correct")
	feedbackCmd.Flags().BoolVar(&feedbackIncorrect, "incorrect", false, "Mark the extraction incorrect")
	feedbackCmd.Flags().StringVar(&feedbackValue, "corrected-value", "", "Corrected value for an incorrect extraction")

	pinCmd.Flags().BoolVar(&pinUseInPrompt, "use-in-prompt", false, "Include the example in future few-shot prompts")

	examplesCmd.Flags().StringVar(&examplesVariable, "variable", "", "Restrict to one variable id")
}
