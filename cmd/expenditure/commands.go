package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"expenditure/internal/amqp"
	"expenditure/internal/backend"
	"expenditure/internal/cli"
	"expenditure/internal/config"
	"expenditure/internal/core"
	"expenditure/internal/export"
	"expenditure/internal/log"
	"expenditure/internal/services"
	gsheet "expenditure/internal/sheets/google"
	"expenditure/internal/worker"
)

type env struct {
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer
	errOut io.Writer
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"add":         runAdd,
	"preview":     runPreview,
	"list":        runList,
	"edit":        runEdit,
	"delete-last": runDeleteLast,
	"clear":       runClear,
	"summary":     runSummary,
	"suggest":     runSuggest,
	"export-yaml": runExportYAML,
	"mirror":      runMirror,
	"watch":       runWatch,
}

// entryFlags holds the raw text of an entry so that blank prices stay
// "not provided".
type entryFlags struct {
	shop, item                 string
	qty                        int
	normal, purchase, amt, pct string
}

func (f *entryFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.shop, "shop", "", "shop name")
	fs.StringVar(&f.item, "item", "", "item name")
	fs.IntVar(&f.qty, "qty", 1, "quantity")
	f.registerPrices(fs)
}

func (f *entryFlags) registerPrices(fs *flag.FlagSet) {
	fs.StringVar(&f.normal, "normal", "", "normal unit price")
	fs.StringVar(&f.purchase, "purchase", "", "purchase unit price")
	fs.StringVar(&f.amt, "discount", "", "discount amount per unit")
	fs.StringVar(&f.pct, "percent", "", "discount percent")
}

func (f *entryFlags) prices() (core.PriceInput, error) {
	var in core.PriceInput
	var err error
	if in.Normal, err = core.ParseAmount(core.FieldNormal.String(), f.normal); err != nil {
		return in, err
	}
	if in.Purchase, err = core.ParseAmount(core.FieldPurchase.String(), f.purchase); err != nil {
		return in, err
	}
	if in.DiscountAmount, err = core.ParseAmount(core.FieldDiscountAmount.String(), f.amt); err != nil {
		return in, err
	}
	if in.DiscountPercent, err = core.ParseAmount(core.FieldDiscountPercent.String(), f.pct); err != nil {
		return in, err
	}
	return in, nil
}

func (f *entryFlags) entry() (services.Entry, error) {
	prices, err := f.prices()
	if err != nil {
		return services.Entry{}, err
	}
	return services.Entry{Shop: f.shop, Item: f.item, Quantity: f.qty, Prices: prices}, nil
}

// withService opens the log for the duration of fn.
func withService(ctx context.Context, e *env, fn func(*services.LogService) error) error {
	rt, err := cli.InitService(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			e.logger.Warn("Failed to close log", log.FieldError, err)
		}
	}()
	return fn(rt.Service)
}

func runAdd(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	var f entryFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	entry, err := f.entry()
	if err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		rec, err := svc.SubmitNewEntry(ctx, entry)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "saved %s\n%s\n", rec.ID, rec.Label())
		return nil
	})
}

func runPreview(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	var f entryFlags
	f.registerPrices(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	in, err := f.prices()
	if err != nil {
		return err
	}

	svc := services.NewLogService(nil, services.WithZeroPolicy(e.cfg.ZeroPolicy()))
	set, err := svc.Preview(in)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	for _, row := range []struct {
		field core.Field
		value string
	}{
		{core.FieldNormal, core.FormatAmount(set.Normal)},
		{core.FieldPurchase, core.FormatAmount(set.Purchase)},
		{core.FieldDiscountAmount, core.FormatAmount(set.DiscountAmount)},
		{core.FieldDiscountPercent, core.FormatAmount(set.DiscountPercent)},
	} {
		v := row.value
		if !set.Known(row.field) {
			v = "?"
		}
		fmt.Fprintf(tw, "%s\t%s\n", row.field, v)
	}
	return tw.Flush()
}

func runList(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		return printRecords(e.out, svc.List())
	})
}

func printRecords(w io.Writer, records []core.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATETIME\tSHOP\tITEM\tQTY\tNORMAL\tPURCHASE\tDISC\tDISC%\tTOTAL\tPAID\tSAVED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Timestamp.Format(core.TimestampLayout), r.Shop, r.Item, r.Quantity,
			core.FormatAmount(r.Normal), core.FormatAmount(r.Purchase),
			core.FormatAmount(r.DiscountAmount), core.FormatAmount(r.DiscountPercent),
			core.FormatAmount(r.TotalNormal), core.FormatAmount(r.TotalPurchase),
			core.FormatAmount(r.TotalDiscount))
	}
	return tw.Flush()
}

func runEdit(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	var id, label string
	fs.StringVar(&id, "id", "", "record ID")
	fs.StringVar(&label, "label", "", "record label as printed by add")
	var f entryFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (id == "") == (label == "") {
		return errors.New("exactly one of -id or -label is required")
	}

	entry, err := f.entry()
	if err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		if label != "" {
			rec, err := svc.SelectForEdit(label)
			if err != nil {
				return err
			}
			id = rec.ID
		}
		rec, err := svc.SaveEdit(ctx, id, entry)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "updated %s\n%s\n", rec.ID, rec.Label())
		return nil
	})
}

func runDeleteLast(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("delete-last", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		rec, ok, err := svc.DeleteLast(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(e.out, "log is empty")
			return nil
		}
		fmt.Fprintf(e.out, "deleted %s\n", rec.Label())
		return nil
	})
}

func runClear(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	yes := fs.Bool("yes", false, "confirm deleting every record")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		n, err := svc.ClearAll(ctx, *yes)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "deleted %d records\n", n)
		return nil
	})
}

func runSummary(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		return printSummary(e.out, svc.Summary())
	})
}

func printSummary(w io.Writer, rows []core.SummaryRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSHOP\tTOTAL\tPAID\tSAVED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Date, r.Shop,
			core.FormatAmount(r.TotalNormal), core.FormatAmount(r.TotalPurchase), core.FormatAmount(r.TotalDiscount))
	}
	if len(rows) > 0 {
		g := core.GrandTotal(rows)
		fmt.Fprintf(tw, "\tall\t%s\t%s\t%s\n",
			core.FormatAmount(g.TotalNormal), core.FormatAmount(g.TotalPurchase), core.FormatAmount(g.TotalDiscount))
	}
	return tw.Flush()
}

func runSuggest(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		shops, items := svc.Suggestions()
		fmt.Fprintln(e.out, "shops:")
		for _, s := range shops {
			fmt.Fprintf(e.out, "  %s\n", s)
		}
		fmt.Fprintln(e.out, "items:")
		for _, s := range items {
			fmt.Fprintf(e.out, "  %s\n", s)
		}
		return nil
	})
}

func runExportYAML(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("export-yaml", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		records := svc.List()
		if err := export.WriteYAML(e.out, records); err != nil {
			return err
		}
		e.logger.Debug("Log exported",
			log.FieldOperation, log.OpExport,
			log.FieldCount, len(records))
		return nil
	})
}

func runMirror(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("mirror", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	verify := fs.Bool("verify", false, "read the sheet back and compare it with the log")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !e.cfg.SheetsEnabled() {
		return errors.New("GOOGLE_SPREADSHEET_ID is not set")
	}

	client, err := newSheetsClient(ctx, e)
	if err != nil {
		return err
	}

	return withService(ctx, e, func(svc *services.LogService) error {
		records := svc.List()
		if err := client.Mirror(ctx, records); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "mirrored %d records\n", len(records))
		if !*verify {
			return nil
		}

		remote, err := client.ReadBack(ctx)
		if err != nil {
			return err
		}
		if diff := compareRecords(records, remote); diff != "" {
			return fmt.Errorf("sheet differs from log: %s", diff)
		}
		fmt.Fprintln(e.out, "sheet matches log")
		return nil
	})
}

func newSheetsClient(ctx context.Context, e *env) (*gsheet.Client, error) {
	return gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:      e.cfg.GoogleSpreadsheetID,
		SheetName:          e.cfg.GoogleSheetName,
		ServiceAccountFile: e.cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: e.cfg.GoogleServiceAccountJSON,
	}, e.logger)
}

// compareRecords returns "" when remote holds the same records in the same
// order, otherwise a description of the first difference.
func compareRecords(local, remote []core.Record) string {
	if len(local) != len(remote) {
		return fmt.Sprintf("%d records in log, %d in sheet", len(local), len(remote))
	}
	for i := range local {
		l, r := local[i], remote[i]
		if l.ID != r.ID {
			return fmt.Sprintf("row %d: id %s, sheet has %s", i+1, l.ID, r.ID)
		}
		if !l.TotalPurchase.Equal(r.TotalPurchase) || !l.TotalNormal.Equal(r.TotalNormal) || l.Quantity != r.Quantity {
			return fmt.Sprintf("row %d: record %s has different values", i+1, l.ID)
		}
	}
	return ""
}

func runWatch(_ context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	mirror := fs.Bool("mirror", false, "rewrite the Google Sheet on every change")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !e.cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is not set")
	}
	if *mirror && !e.cfg.SheetsEnabled() {
		return errors.New("GOOGLE_SPREADSHEET_ID is not set")
	}

	client, err := amqp.NewClient(e.cfg.AMQPURL, e.cfg.AMQPExchange, e.cfg.AMQPQueue, e.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(e.logger, 5*time.Second, func() {
		if err := client.Close(); err != nil {
			e.logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	var syncer *worker.SyncWorker
	if *mirror {
		var cleanup func()
		syncer, cleanup, err = newSyncWorker(ctx, e)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := syncer.StartupSync(ctx); err != nil {
			e.logger.Warn("Startup sync failed", log.FieldError, err)
		}
	}

	err = client.ConsumeLogChanges(ctx, func(msg *amqp.LogChangeMessage) error {
		if _, err := fmt.Fprintf(e.out, "%s\t%s\tid=%s\tcount=%d\n",
			msg.Timestamp.Format(time.RFC3339), msg.Event, msg.ID, msg.Count); err != nil {
			return err
		}
		if syncer != nil {
			return syncer.HandleLogChange(ctx, msg)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		<-done
		return nil
	}
	return err
}

// newSyncWorker reads the log straight from the configured medium so that
// every change event sees what the publishing process flushed.
func newSyncWorker(ctx context.Context, e *env) (*worker.SyncWorker, func(), error) {
	bcfg, err := backend.FromAppConfig(e.cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(e.logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	}

	client, err := newSheetsClient(ctx, e)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return worker.NewSyncWorker(res.Medium, client, e.logger), cleanup, nil
}
