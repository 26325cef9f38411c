// Package export writes the log and its summary as YAML documents.
package export

import (
	"fmt"
	"io"

	"expenditure/internal/core"

	"gopkg.in/yaml.v3"
)

type recordYAML struct {
	ID              string `yaml:"id"`
	DateTime        string `yaml:"date_time"`
	Shop            string `yaml:"shop"`
	Item            string `yaml:"item"`
	Quantity        int    `yaml:"qty"`
	NormalPrice     string `yaml:"normal_price"`
	PurchasePrice   string `yaml:"purchase_price"`
	DiscountAmount  string `yaml:"discount_amount"`
	DiscountPercent string `yaml:"discount_percent"`
	TotalNormal     string `yaml:"total_normal"`
	TotalPurchase   string `yaml:"total_purchase"`
	TotalDiscount   string `yaml:"total_discount"`
}

type summaryYAML struct {
	Date          string `yaml:"date"`
	Shop          string `yaml:"shop"`
	TotalNormal   string `yaml:"total_normal"`
	TotalPurchase string `yaml:"total_purchase"`
	TotalDiscount string `yaml:"total_discount"`
}

type totalsYAML struct {
	TotalNormal   string `yaml:"total_normal"`
	TotalPurchase string `yaml:"total_purchase"`
	TotalDiscount string `yaml:"total_discount"`
}

// Document is the exported file layout.
type Document struct {
	Records []recordYAML  `yaml:"records"`
	Summary []summaryYAML `yaml:"summary"`
	Totals  totalsYAML    `yaml:"totals"`
}

// Build converts the log into a Document. Amounts are strings with at most
// two decimals so that readers do not go through floating point.
func Build(records []core.Record) Document {
	doc := Document{
		Records: make([]recordYAML, 0, len(records)),
	}
	for _, r := range records {
		doc.Records = append(doc.Records, recordYAML{
			ID:              r.ID,
			DateTime:        r.Timestamp.Format(core.TimestampLayout),
			Shop:            r.Shop,
			Item:            r.Item,
			Quantity:        r.Quantity,
			NormalPrice:     core.FormatAmount(r.Normal),
			PurchasePrice:   core.FormatAmount(r.Purchase),
			DiscountAmount:  core.FormatAmount(r.DiscountAmount),
			DiscountPercent: core.FormatAmount(r.DiscountPercent),
			TotalNormal:     core.FormatAmount(r.TotalNormal),
			TotalPurchase:   core.FormatAmount(r.TotalPurchase),
			TotalDiscount:   core.FormatAmount(r.TotalDiscount),
		})
	}

	rows := core.Summarize(records)
	doc.Summary = make([]summaryYAML, 0, len(rows))
	for _, row := range rows {
		doc.Summary = append(doc.Summary, summaryYAML{
			Date:          row.Date.String(),
			Shop:          row.Shop,
			TotalNormal:   core.FormatAmount(row.TotalNormal),
			TotalPurchase: core.FormatAmount(row.TotalPurchase),
			TotalDiscount: core.FormatAmount(row.TotalDiscount),
		})
	}

	total := core.GrandTotal(rows)
	doc.Totals = totalsYAML{
		TotalNormal:   core.FormatAmount(total.TotalNormal),
		TotalPurchase: core.FormatAmount(total.TotalPurchase),
		TotalDiscount: core.FormatAmount(total.TotalDiscount),
	}
	return doc
}

// WriteYAML encodes the log as a Document to w.
func WriteYAML(w io.Writer, records []core.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Build(records)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}
