package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/collect"
	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/logging"
	"github.com/avolkhin/fincascade/internal/model"
	"github.com/avolkhin/fincascade/internal/pipeline"
	"github.com/avolkhin/fincascade/internal/prior"
)

var (
	eventID       string
	eventName     string
	scenarioSpecs []string
	priorFile     string
	category      string
	outJSON       string
	outMD         string
	timeout       time.Duration
	userAgent     string
	maxBytes      int64
	noCache       bool
	noFooter      bool
	oracleName    string
	oracleModel   string
)

// reconstructCmd represents the reconstruct command
var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <file-or-url>...",
	Short: "Reconstruct an event cascade from evidence documents",
	Long: `Reconstruct runs the full five-stage pipeline over the given evidence:
- Resolve participant mentions to stable identities
- Plan a stage skeleton from the scenario prior
- Extract atomic episodes and assign them to stages
- Fact-check every claimed value against the evidence
- Review coverage and emit the final cascade with warnings

Evidence arguments are local text files or http(s) URLs; URLs are fetched
politely (robots.txt, rate limits) and reduced to plain text.

Example:
  fincascade reconstruct filings/*.txt --event bankrun_x_2024 --scenario "Bank Run=0.8"
  fincascade reconstruct https://example.com/article --scenario "Accounting Fraud=0.6" --scenario "Bank Run=0.3"
  fincascade reconstruct docs.txt --oracle openai --model gpt-4o-mini --json cascade.json --md cascade.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReconstruct,
}

func init() {
	rootCmd.AddCommand(reconstructCmd)

	// Event and prior flags
	reconstructCmd.Flags().StringVar(&eventID, "event", "", "stable event identifier (default: derived from event name)")
	reconstructCmd.Flags().StringVar(&eventName, "name", "", "human-readable event name")
	reconstructCmd.Flags().StringArrayVar(&scenarioSpecs, "scenario", nil, "scenario segment as name=confidence (repeatable)")
	reconstructCmd.Flags().StringVar(&priorFile, "prior-file", "", "YAML catalog overlay with additional scenario archetypes")
	reconstructCmd.Flags().StringVar(&category, "category", "news", "evidence source category (news, regulatory_filing, court_record, research_report, social_media)")

	// Output flags
	reconstructCmd.Flags().StringVar(&outJSON, "json", "cascade.json", "output JSON path")
	reconstructCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	reconstructCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown output")

	// HTTP flags
	reconstructCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall reconstruction timeout")
	reconstructCmd.Flags().StringVar(&userAgent, "ua", "fincascade/0.1 (+https://github.com/avolkhin/fincascade)", "HTTP User-Agent for URL evidence")
	reconstructCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read per URL")

	// Oracle flags
	reconstructCmd.Flags().StringVar(&oracleName, "oracle", "", "evidence oracle provider (keyword, openai)")
	reconstructCmd.Flags().StringVar(&oracleModel, "model", "", "oracle model name")
	reconstructCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable oracle response cache")
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Collector.UserAgent = userAgent
	cfg.Collector.MaxBodyBytes = maxBytes
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	if noCache {
		cfg.Cache.Enabled = false
	}
	if oracleName != "" {
		cfg.Oracle.Provider = oracleName
	}
	if oracleModel != "" {
		cfg.Oracle.Model = oracleModel
	}
	if cfg.Oracle.Provider == "openai" && cfg.Oracle.APIKey == "" && cfg.Oracle.BaseURL == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	rec, err := buildRecognizer()
	if err != nil {
		return err
	}
	if eventID == "" {
		eventID = slugify(rec.EventName)
	}
	if eventID == "" {
		return fmt.Errorf("provide --event or --name to identify the event")
	}

	store, err := gatherEvidence(ctx, cfg, logger, args)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Evidence: %d documents\n", store.Len())
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer p.Close()

	cascade, err := p.Run(ctx, pipeline.Input{
		EventID:    eventID,
		Evidence:   store,
		Recognizer: rec,
	})
	if err != nil {
		return fmt.Errorf("reconstruct: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(cascade, outJSON); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(cascade, outMD); err != nil {
			return fmt.Errorf("write Markdown: %w", err)
		}
	}
	renderer.RenderSummary(cascade)

	return nil
}

// buildRecognizer assembles the event prior from --scenario flags against the
// catalog, optionally overlaid with --prior-file archetypes. With no segments
// the pipeline still runs, evidence-driven only.
func buildRecognizer() (model.FinanceEventRecognizer, error) {
	lib := prior.NewLibrary()
	if priorFile != "" {
		var err error
		lib, err = prior.LoadLibrary(priorFile)
		if err != nil {
			return model.FinanceEventRecognizer{}, err
		}
	}

	segments := make(map[model.ScenarioName]float64, len(scenarioSpecs))
	for _, spec := range scenarioSpecs {
		name, confStr, ok := strings.Cut(spec, "=")
		if !ok {
			return model.FinanceEventRecognizer{}, fmt.Errorf("scenario %q: want name=confidence", spec)
		}
		conf, err := strconv.ParseFloat(confStr, 64)
		if err != nil || conf < 0 || conf > 1 {
			return model.FinanceEventRecognizer{}, fmt.Errorf("scenario %q: confidence must be in [0,1]", spec)
		}
		segments[model.ScenarioName(name)] = conf
	}

	name := eventName
	if name == "" {
		name = eventID
	}
	return lib.Recognizer(name, segments), nil
}

// gatherEvidence loads file arguments directly and fetches URL arguments with
// the polite collector, merging everything into one store.
func gatherEvidence(ctx context.Context, cfg *model.Config, logger *zap.Logger, args []string) (*evidence.Store, error) {
	var files, urls []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			urls = append(urls, arg)
		} else {
			files = append(files, arg)
		}
	}

	var docs []evidence.Document
	if len(files) > 0 {
		fileStore, err := evidence.LoadFiles(category, files...)
		if err != nil {
			return nil, fmt.Errorf("load evidence files: %w", err)
		}
		docs = append(docs, fileStore.Documents()...)
	}
	if len(urls) > 0 {
		collector := collect.NewCollector(cfg.Collector, logger)
		urlStore, err := collector.Collect(ctx, category, urls)
		if err != nil {
			return nil, fmt.Errorf("collect evidence: %w", err)
		}
		docs = append(docs, urlStore.Documents()...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no evidence documents loaded")
	}
	return evidence.NewStore(docs), nil
}

// slugify turns an event name into a filesystem- and id-safe token.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
