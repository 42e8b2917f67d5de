package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/JustJay7/hc-case-tracker/internal/database"
)

const orderDatePlaceholder = "Date not available"

// ExtractOrders parses the orders page into order records. Each row
// parses independently; a bad row is logged and skipped so one
// malformed entry never costs the rest. A missing table or empty body
// yields an empty slice, which the caller treats as "no orders", never
// as a failed case lookup.
func (e *Extractor) ExtractOrders(html string) []database.OrderRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.log.Warn("failed to parse orders page", "error", err)
		return nil
	}

	table := e.findTable(doc, ordersTableSelectors)
	if table == nil {
		e.log.Warn("no orders table found")
		return nil
	}

	var orders []database.OrderRecord
	tableRows(table).Each(func(i int, row *goquery.Selection) {
		order, ok := e.parseOrderRow(row, i)
		if !ok {
			e.log.Warn("skipping unparsable order row", "row", i)
			return
		}
		orders = append(orders, order)
	})

	e.log.Info("extracted orders", "count", len(orders))
	return orders
}

// parseOrderRow reads one orders-table row. The second cell usually
// carries the document anchor and the third the order date; a malformed
// or missing link degrades to an order without a document, not a
// dropped row.
func (e *Extractor) parseOrderRow(row *goquery.Selection, index int) (database.OrderRecord, bool) {
	cells := row.Find("td")
	if cells.Length() < 2 {
		return database.OrderRecord{}, false
	}

	linkCell := cells.Eq(1)

	date := orderDatePlaceholder
	if cells.Length() > 2 {
		if t := strings.TrimSpace(cells.Eq(2).Text()); t != "" {
			date = t
		}
	}

	order := database.OrderRecord{
		Index:       index + 1,
		Date:        date,
		Description: "Not Available",
	}

	if a := linkCell.Find("a[href]").First(); a.Length() > 0 {
		if text := strings.TrimSpace(a.Text()); text != "" {
			order.Description = text
		}
		if href, ok := a.Attr("href"); ok {
			order.DocumentLink = e.ResolveURL(href)
		}
	}

	return order, true
}
