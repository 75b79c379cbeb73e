// Command sendbatch runs one outbound batch from the terminal: reads a
// contact sheet from disk, sends through the configured transport, and
// optionally writes the updated statuses back to the sheet. Credentials
// come from the environment (or .env), matching the single-operator
// usage this tool started with.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lucasandrade/disparador/internal/batch"
	"github.com/lucasandrade/disparador/internal/config"
	"github.com/lucasandrade/disparador/internal/contacts"
	"github.com/lucasandrade/disparador/internal/delivery"
	"github.com/lucasandrade/disparador/internal/pkg/logger"
)

func main() {
	var (
		filePath  = flag.String("file", "data/contatos.csv", "contact sheet (CSV)")
		subject   = flag.String("subject", "", "message subject (default from SUBJECT env)")
		textFile  = flag.String("text", "", "plain-text template file (required)")
		htmlFile  = flag.String("html", "", "HTML template file (optional)")
		limit     = flag.Int("limit", 0, "daily send cap (default from DAILY_LIMIT env)")
		attach    = flag.String("attach", "", "comma-separated attachment paths")
		noPacing  = flag.Bool("no-pacing", false, "disable the delay between sends")
		writeBack = flag.Bool("update", false, "write resulting statuses back to the sheet")
		dryRun    = flag.Bool("dry-run", false, "list selected contacts without sending")
	)
	flag.Parse()

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fatal("loading config: %v", err)
	}
	if cfg.Runtime.DebugLog {
		logger.SetLevel(logger.DEBUG)
	}
	logger.SetRedact(false) // operator terminal, addresses are theirs

	if *subject == "" {
		*subject = cfg.Sending.Subject
	}
	if *limit <= 0 {
		*limit = cfg.Sending.DailyLimit
	}
	if *limit > config.MaxDailyLimit {
		*limit = config.MaxDailyLimit
	}

	if *textFile == "" {
		fatal("-text is required (path to the plain-text template)")
	}
	textTemplate, err := os.ReadFile(*textFile)
	if err != nil {
		fatal("reading text template: %v", err)
	}
	var htmlTemplate []byte
	if *htmlFile != "" {
		htmlTemplate, err = os.ReadFile(*htmlFile)
		if err != nil {
			fatal("reading html template: %v", err)
		}
	}

	if _, err := os.Stat(*filePath); err != nil {
		if starterErr := contacts.WriteStarterFile(*filePath); starterErr != nil {
			fatal("%v", starterErr)
		}
	}
	data, err := os.ReadFile(*filePath)
	if err != nil {
		fatal("reading contact sheet: %v", err)
	}

	recs, err := contacts.Read(data, *limit)
	if err != nil {
		fatal("parsing contact sheet: %v", err)
	}
	fmt.Printf("selected %d contact(s), cap %d\n", len(recs), *limit)

	if *dryRun {
		for _, rec := range recs {
			fmt.Printf("  row %d  %-35s %s\n", rec.Row, rec.Email, rec.Name)
		}
		return
	}

	creds := delivery.Credentials{
		Login:     firstEnv("SMTP_USER", "EMAIL"),
		Password:  os.Getenv("SENHA_APP"),
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		FromEmail: os.Getenv("EMAIL"),
		FromName:  cfg.Sending.FromName,
		ReplyTo:   cfg.Sending.ReplyTo,
	}

	backend, err := delivery.New(cfg, creds)
	if err != nil {
		fatal("transport setup: %v", err)
	}

	var attachments []string
	if *attach != "" {
		attachments = strings.Split(*attach, ",")
	}

	req := batch.Request{
		Subject:         *subject,
		TextTemplate:    string(textTemplate),
		HTMLTemplate:    string(htmlTemplate),
		TextOnly:        cfg.Sending.TextOnly,
		Attachments:     attachments,
		ListUnsubscribe: cfg.Sending.ListUnsubscribe,
		Interval:        cfg.Sending.Interval(),
		SkipPacing:      *noPacing || cfg.Runtime.Serverless,
	}

	start := time.Now()
	runner := batch.NewRunner(backend)

	statuses := map[int]string{}
	summary := batch.Summary{Limit: *limit, Constrained: cfg.Runtime.Serverless}
	for out := range runner.Run(context.Background(), recs, req) {
		mark := "ok"
		if !out.Success {
			mark = "FAIL"
		}
		fmt.Printf("  row %d  %-35s %s\n", out.Row, out.Email, mark)

		statuses[out.Row] = out.Status
		summary.Requested++
		if out.Success {
			summary.SentOK++
		} else {
			summary.Failed++
		}
	}

	fmt.Printf("done in %s: requested=%d sent_ok=%d failed=%d limit=%d\n",
		time.Since(start).Round(time.Second),
		summary.Requested, summary.SentOK, summary.Failed, summary.Limit)

	if *writeBack && len(statuses) > 0 {
		updated, err := contacts.ApplyStatuses(data, statuses)
		if err != nil {
			fatal("updating sheet: %v", err)
		}
		if err := os.WriteFile(*filePath, updated, 0o644); err != nil {
			fatal("writing sheet: %v", err)
		}
		fmt.Printf("statuses written back to %s\n", *filePath)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "sendbatch: "+format+"\n", args...)
	os.Exit(1)
}
