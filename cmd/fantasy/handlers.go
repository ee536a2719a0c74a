package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/internal/config"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/internal/store"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/alert"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/collect"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/pcs"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/server"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/sheet"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/value"
)

func loadConfig() (*config.Config, error) {
	// .env only fills variables the environment does not already set
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildPCSClient(cfg *config.Config) *pcs.Client {
	return pcs.NewClient(pcs.Options{
		BaseURL:      cfg.PCS.BaseURL,
		UserAgent:    cfg.PCS.UserAgent,
		Timeout:      cfg.PCS.ParseTimeout(),
		MinInterval:  cfg.PCS.ParseMinInterval(),
		RankingPages: cfg.PCS.RankingPages,
	})
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

// openArchive returns nil when the archive is disabled or cannot be opened.
func openArchive(cfg *config.Config) store.Store {
	if cfg.Database.Path == "" {
		return nil
	}
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		slog.Warn("run archive unavailable", "path", cfg.Database.Path, "err", err)
		return nil
	}
	return db
}

func openSpreadsheet(ctx context.Context, cfg *config.Config) (sheet.Spreadsheet, error) {
	client, err := sheet.Authorize(ctx, sheet.AuthConfig{
		CredentialsFile: cfg.Sheets.Credentials,
		TokenFile:       cfg.Sheets.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	return sheet.NewGoogleSheets(ctx, client, cfg.Sheets.SpreadsheetID)
}

// pipeline runs the stages and carries their side effects: archiving and
// notifications, neither of which can fail a stage.
type pipeline struct {
	cfg     *config.Config
	archive store.Store
	alerts  *alert.Manager
}

func newPipeline(cfg *config.Config) *pipeline {
	return &pipeline{
		cfg:     cfg,
		archive: openArchive(cfg),
		alerts:  buildAlertManager(cfg),
	}
}

func (p *pipeline) Close() {
	if p.archive != nil {
		p.archive.Close()
	}
}

func (p *pipeline) record(ctx context.Context, run *store.Run, riders []store.RunRider) {
	if p.archive == nil {
		return
	}
	if err := p.archive.RecordRun(ctx, run, riders); err != nil {
		slog.WarnContext(ctx, "archive run failed", "stage", run.Stage, "err", err)
		return
	}
	slog.DebugContext(ctx, "run archived", "id", run.ID, "stage", run.Stage)
}

func (p *pipeline) notify(ctx context.Context, n *alert.Notification) {
	if !p.alerts.HasNotifiers() {
		return
	}
	if err := p.alerts.Broadcast(ctx, n); err != nil {
		slog.WarnContext(ctx, "notification failed", "err", err)
	}
}

func (p *pipeline) collect(ctx context.Context, src collect.StartlistSource, race, out string) error {
	records, err := collect.New(src, p.cfg.PCS.BaseURL).Collect(ctx, race)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		slog.WarnContext(ctx, "startlist is empty", "race", race)
	}

	if err := rider.Save(out, records); err != nil {
		return err
	}
	slog.InfoContext(ctx, "startlist saved", "race", race, "riders", len(records), "path", out)

	p.record(ctx, &store.Run{Stage: store.StageCollect, Race: race, Target: out},
		store.RidersFromRecords(records, nil))
	return nil
}

func (p *pipeline) value(ctx context.Context, ranking value.RankingSource, season value.SeasonSource, in, out string) error {
	records, err := rider.Load(in)
	if err != nil {
		return fmt.Errorf("load startlist: %w", err)
	}
	if len(records) == 0 {
		slog.WarnContext(ctx, "startlist is empty, writing an empty values file", "path", in)
	}

	res, err := value.New(ranking, season, value.NewRoles(p.cfg.Value.Roles)).Valuate(ctx, records)
	if err != nil {
		return err
	}

	if err := rider.Save(out, res.Riders); err != nil {
		return err
	}
	slog.InfoContext(ctx, "values saved",
		"riders", len(res.Riders),
		"p10", res.P10,
		"p99", res.P99,
		"ranked", res.Ranked,
		"fallbacks", res.Fallbacks,
		"missing", res.Missing,
		"path", out,
	)

	p.record(ctx, &store.Run{Stage: store.StageValue, Race: p.cfg.Race, P10: res.P10, P99: res.P99, Target: out},
		store.RidersFromRecords(res.Riders, res.Points))
	return nil
}

func (p *pipeline) publish(ctx context.Context, ss sheet.Spreadsheet, records []rider.Record, verify bool) error {
	title, err := ss.Title(ctx)
	if err != nil {
		return err
	}

	pub := sheet.NewPublisher(ss, p.cfg.Sheets.Tab)
	report, err := pub.Publish(ctx, records)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	slog.InfoContext(ctx, "sheet updated", "spreadsheet", title, "tab", report.Tab, "rows", report.Rows, "created", report.Created)

	if verify {
		if err := pub.Verify(ctx, len(records)); err != nil {
			return err
		}
		slog.InfoContext(ctx, "sheet verified", "tab", report.Tab, "rows", report.Rows)
	}

	p.record(ctx, &store.Run{Stage: store.StagePublish, Race: p.cfg.Race, Target: report.Tab},
		store.RidersFromRecords(records, nil))
	p.notify(ctx, alert.NewPublishNotification(p.cfg.Race, report.Tab, sheet.URL(p.cfg.Sheets.SpreadsheetID), records))
	return nil
}

func runCollect(ctx context.Context, race, out string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if race == "" {
		race = cfg.Race
	}
	if out == "" {
		out = cfg.Data.Startlist
	}

	p := newPipeline(cfg)
	defer p.Close()
	return p.collect(ctx, buildPCSClient(cfg), race, out)
}

func runValue(ctx context.Context, in, out string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if in == "" {
		in = cfg.Data.Startlist
	}
	if out == "" {
		out = cfg.Data.Values
	}

	p := newPipeline(cfg)
	defer p.Close()
	client := buildPCSClient(cfg)
	return p.value(ctx, client, client, in, out)
}

func runPublish(ctx context.Context, in string, verify bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if in == "" {
		in = cfg.Data.Values
	}

	p := newPipeline(cfg)
	defer p.Close()
	return publishFile(ctx, p, in, verify)
}

// publishFile reads the values file before touching credentials so a missing
// input fails without any network work.
func publishFile(ctx context.Context, p *pipeline, in string, verify bool) error {
	records, err := rider.Load(in)
	if err != nil {
		return fmt.Errorf("load values: %w", err)
	}
	if p.cfg.Sheets.SpreadsheetID == "" {
		return errors.New("sheets.spreadsheet_id is not configured")
	}

	ss, err := openSpreadsheet(ctx, p.cfg)
	if err != nil {
		return err
	}
	return p.publish(ctx, ss, records, verify)
}

func runPipeline(ctx context.Context, verify bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	p := newPipeline(cfg)
	defer p.Close()
	client := buildPCSClient(cfg)

	if err := p.collect(ctx, client, cfg.Race, cfg.Data.Startlist); err != nil {
		return err
	}
	if err := p.value(ctx, client, client, cfg.Data.Startlist, cfg.Data.Values); err != nil {
		return err
	}
	return publishFile(ctx, p, cfg.Data.Values, verify)
}

func runShow(path string) error {
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.Data.Values
	}

	records, err := rider.Load(path)
	if err != nil {
		return err
	}
	renderRecords(os.Stdout, records)
	return nil
}

func runHistory(ctx context.Context, stage string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	stages := []string{store.StageCollect, store.StageValue, store.StagePublish}
	if stage != "" && !slices.Contains(stages, stage) {
		return fmt.Errorf("unknown stage %q (want one of %s)", stage, strings.Join(stages, ", "))
	}
	if cfg.Database.Path == "" {
		return errors.New("run archive is disabled (database.path is empty)")
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, store.RunListOpts{Stage: stage, Limit: limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs archived yet (try: fantasy run)")
		return nil
	}
	renderRuns(os.Stdout, runs)
	return nil
}

func runServe(ctx context.Context, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port == 0 {
		port = cfg.Server.Port
	}
	if cfg.Database.Path == "" {
		return errors.New("run archive is disabled (database.path is empty)")
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	return server.New(db, port).ListenAndServe(ctx)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderRecords(w io.Writer, records []rider.Record) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Rider", "Team", "Role", "Value", "Adj", "PCS"})
	var total float64
	for i, r := range records {
		t.AppendRow(table.Row{i + 1, r.Rider, r.Team, r.Role, r.Value, r.Adj, rider.RelativeURL(r.URL)})
		total += r.Value
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d riders", len(records)), "", "", total, "", ""})
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

func renderRuns(w io.Writer, runs []store.Run) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Stage", "Race", "Riders", "P10", "P99", "Target", "When"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID, r.Stage, r.Race, r.Riders,
			fmt.Sprintf("%.1f", r.P10), fmt.Sprintf("%.1f", r.P99),
			r.Target, r.CreatedAt.Local().Format(time.DateTime),
		})
	}
	t.Render()
}
