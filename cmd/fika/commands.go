package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fikafood/fika/internal/cli"
	"github.com/fikafood/fika/internal/config"
	"github.com/fikafood/fika/internal/export"
	"github.com/fikafood/fika/internal/extract"
	"github.com/fikafood/fika/internal/mealplan"
	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/render"
	"github.com/fikafood/fika/internal/server"
	"github.com/fikafood/fika/internal/storage"
	"github.com/fikafood/fika/internal/summary"
	"github.com/fikafood/fika/pkg/utils"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

type summaryOptions struct {
	configPath string
	serverURL  string
	user       string
	date       string
	period     string
	start      string
	end        string
	xlsx       string
	format     cli.OutputFormat
}

// isPeriod reports whether the flags ask for a period rather than a single day.
func (o *summaryOptions) isPeriod() bool {
	return o.period != "" || o.start != "" || o.end != "" || o.xlsx != ""
}

func (o *summaryOptions) periodRequest() summary.PeriodRequest {
	return summary.PeriodRequest{Period: o.period, StartDate: o.start, EndDate: o.end}
}

func parseSummaryFlags(args []string) (*summaryOptions, error) {
	fs := newFlagSet("summary")
	o := &summaryOptions{}
	fs.StringVar(&o.configPath, "config", config.ConfigPath, "config file path (for direct storage mode)")
	fs.StringVar(&o.serverURL, "server", defaultServerURL, "server URL (empty = use direct storage)")
	fs.StringVar(&o.user, "user", "", "user ID")
	fs.StringVar(&o.date, "date", "", "day to summarise (YYYY-MM-DD, default today)")
	fs.StringVar(&o.period, "period", "", "week, month, year or custom")
	fs.StringVar(&o.start, "start", "", "custom period start (YYYY-MM-DD)")
	fs.StringVar(&o.end, "end", "", "custom period end (YYYY-MM-DD)")
	fs.StringVar(&o.xlsx, "xlsx", "", "write the period summary as a spreadsheet to this path")
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(o.user) == "" {
		return nil, errors.New("--user is required")
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return nil, err
	}
	o.format = format
	return o, nil
}

func runSummary(args []string) {
	opts, err := parseSummaryFlags(args)
	if err != nil {
		fail("summary: %v", err)
	}
	ctx := context.Background()

	var fetcher summaryFetcher
	if opts.serverURL != "" {
		fetcher = &httpSummaries{baseURL: strings.TrimRight(opts.serverURL, "/"), userID: opts.user}
	} else {
		cfg, _, err := loadConfig(opts.configPath)
		if err != nil {
			fail("Failed to load config: %v", err)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fail("Failed to create logger: %v", err)
		}
		defer logger.Sync()
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fail("Failed to open storage: %v", err)
		}
		defer store.Close()
		agg, err := newAggregator(store, cfg, logger)
		if err != nil {
			fail("Failed to initialize: %v", err)
		}
		fetcher = &directSummaries{agg: agg, userID: opts.user}
	}

	if err := writeSummary(ctx, os.Stdout, fetcher, opts); err != nil {
		fail("Summary failed: %v", err)
	}
}

// summaryFetcher loads summaries either from a running server or from storage.
type summaryFetcher interface {
	Daily(ctx context.Context, date string) (*models.DailySummary, error)
	Period(ctx context.Context, req summary.PeriodRequest) (*models.PeriodSummary, error)
}

func writeSummary(ctx context.Context, w io.Writer, f summaryFetcher, opts *summaryOptions) error {
	if !opts.isPeriod() {
		s, err := f.Daily(ctx, opts.date)
		if err != nil {
			return err
		}
		return cli.WriteDaily(w, s, opts.format)
	}
	s, err := f.Period(ctx, opts.periodRequest())
	if err != nil {
		return err
	}
	if opts.xlsx != "" {
		if err := writeXLSX(opts.xlsx, s); err != nil {
			return err
		}
	}
	return cli.WritePeriod(w, s, opts.format)
}

func writeXLSX(path string, s *models.PeriodSummary) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, export.Filename(s))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.PeriodXLSX(f, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

type directSummaries struct {
	agg    *summary.Aggregator
	userID string
}

func (d *directSummaries) Daily(ctx context.Context, date string) (*models.DailySummary, error) {
	return d.agg.Daily(ctx, d.userID, date)
}

func (d *directSummaries) Period(ctx context.Context, req summary.PeriodRequest) (*models.PeriodSummary, error) {
	return d.agg.Period(ctx, d.userID, req)
}

type httpSummaries struct {
	baseURL string
	userID  string
}

func (h *httpSummaries) Daily(ctx context.Context, date string) (*models.DailySummary, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	var s models.DailySummary
	if err := h.get(ctx, "/api/v1/summary/daily", q, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (h *httpSummaries) Period(ctx context.Context, req summary.PeriodRequest) (*models.PeriodSummary, error) {
	q := url.Values{}
	for k, v := range map[string]string{"period": req.Period, "start_date": req.StartDate, "end_date": req.EndDate} {
		if v != "" {
			q.Set(k, v)
		}
	}
	var s models.PeriodSummary
	if err := h.get(ctx, "/api/v1/summary/period", q, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (h *httpSummaries) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := h.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if h.userID != "" {
		req.Header.Set(server.UserHeader, h.userID)
	}
	return doJSON(req, out)
}

func doJSON(req *http.Request, out interface{}) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runStatus(args []string) {
	fs := newFlagSet("status")
	configPath := fs.String("config", config.ConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fail("status: %v", err)
	}

	var status *cli.Status
	if *serverURL != "" {
		status, err = statusViaHTTP(context.Background(), strings.TrimRight(*serverURL, "/"))
		if err != nil {
			fail("Status failed: %v", err)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fail("Failed to load config: %v", err)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fail("Failed to open storage: %v", err)
		}
		defer store.Close()
		stats, err := store.Stats(context.Background())
		if err != nil {
			fail("Status failed: %v", err)
		}
		status = &cli.Status{Counts: *stats}
		if n, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.ImageDir); err == nil {
			status.DiskUsageBytes = &n
		}
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func statusViaHTTP(ctx context.Context, serverURL string) (*cli.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/api/v1/status", nil)
	if err != nil {
		return nil, err
	}
	var s cli.Status
	if err := doJSON(req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func runPlan(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: fika plan <parse|render> [flags] <file>")
		os.Exit(1)
	}
	var err error
	switch args[0] {
	case "parse":
		err = planParse(args[1:], os.Stdout)
	case "render":
		err = planRender(args[1:], os.Stdout)
	default:
		fail("Unknown plan subcommand: %s", args[0])
	}
	if err != nil {
		fail("plan %s: %v", args[0], err)
	}
}

// planParse extracts the text of a plan document and prints the structured plan.
func planParse(args []string, w io.Writer) error {
	fs := newFlagSet("plan parse")
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: fika plan parse [flags] <file>")
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	text, err := extract.NewExtractor().Extract(fs.Arg(0))
	if err != nil {
		return err
	}
	return cli.WritePlan(w, mealplan.LabeledParser{}.Parse(text), format)
}

// readPlanFile accepts either a stored plan as returned by the API or a bare plan
// dictionary. A bare plan starts today.
func readPlanFile(path string, now time.Time) (*models.MealPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, models.NewValidationError("file", fmt.Sprintf("%s is not a JSON object: %v", path, err))
	}
	p := &models.MealPlan{}
	if _, stored := probe["plan"]; stored {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, models.NewValidationError("file", err.Error())
		}
	} else if err := json.Unmarshal(data, &p.Plan); err != nil {
		return nil, models.NewValidationError("file", err.Error())
	}
	if p.StartDate == "" || p.EndDate == "" {
		p.StartDate, p.EndDate = models.PlanDates(now)
	}
	return p, nil
}

// planRender writes a plan JSON file as PDF. With --verify the PDF is read back and
// every meal is checked for.
func planRender(args []string, w io.Writer) error {
	fs := newFlagSet("plan render")
	styleName := fs.String("style", "simple", "PDF style: simple or styled")
	out := fs.String("out", "", "output PDF path")
	user := fs.String("user", "", "name shown on the document")
	verify := fs.Bool("verify", false, "read the PDF back and check its content")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: fika plan render [flags] <plan.json>")
	}
	style, err := render.ParseStyle(*styleName)
	if err != nil {
		return err
	}
	plan, err := readPlanFile(fs.Arg(0), time.Now())
	if err != nil {
		return err
	}
	var owner *models.User
	if *user != "" {
		owner = &models.User{FirstName: *user}
	}
	doc := render.NewDocument(plan, owner)

	var buf bytes.Buffer
	if err := render.New(style).Render(&buf, doc); err != nil {
		return err
	}
	if *verify {
		missing, err := verifyPDF(buf.Bytes(), doc)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("rendered PDF is missing %d meal(s): %s", len(missing), strings.Join(missing, "; "))
		}
	}
	path := *out
	if path == "" {
		path = doc.Filename()
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "Wrote %s (%s, %d bytes)\n", path, style, buf.Len())
	return nil
}

// verifyPDF returns the meals of doc that cannot be found in the PDF text.
// Whitespace is ignored since wrapping splits lines.
func verifyPDF(pdf []byte, doc render.Document) ([]string, error) {
	text, err := render.ExtractText(pdf)
	if err != nil {
		return nil, err
	}
	flat := squash(text)
	var missing []string
	for _, day := range doc.Plan.Days {
		for _, meal := range []string{day.Breakfast, day.Lunch, day.Dinner} {
			if m := strings.TrimSpace(meal); m != "" && !strings.Contains(flat, squash(m)) {
				missing = append(missing, day.Label()+": "+utils.Truncate(m, 40))
			}
		}
	}
	return missing, nil
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}
