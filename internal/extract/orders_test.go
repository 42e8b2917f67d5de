package extract

import "testing"

const ordersPage = `
<table id="caseTable"><tbody>
  <tr>
    <td>1</td>
    <td><a href="/app/orders/1.pdf">Order dated 01.02.2024</a></td>
    <td>01.02.2024</td>
  </tr>
  <tr>
    <td>2</td>
    <td><a href="://bad">Order dated 15.02.2024</a></td>
    <td>15.02.2024</td>
  </tr>
  <tr>
    <td>malformed single cell</td>
  </tr>
  <tr>
    <td>3</td>
    <td><a href="https://example.org/order3.pdf">Order dated 01.03.2024</a></td>
    <td>01.03.2024</td>
  </tr>
  <tr>
    <td>4</td>
    <td>Listed for directions</td>
  </tr>
</tbody></table>`

func TestExtractOrders(t *testing.T) {
	orders := newTestExtractor().ExtractOrders(ordersPage)

	// One of the five rows is unparsable; the other four must survive.
	if len(orders) != 4 {
		t.Fatalf("expected 4 orders, got %d", len(orders))
	}

	first := orders[0]
	if first.Index != 1 {
		t.Errorf("Index = %d, want 1", first.Index)
	}
	if first.Date != "01.02.2024" {
		t.Errorf("Date = %q", first.Date)
	}
	if first.Description != "Order dated 01.02.2024" {
		t.Errorf("Description = %q", first.Description)
	}
	if want := baseURL + "/app/orders/1.pdf"; first.DocumentLink != want {
		t.Errorf("DocumentLink = %q, want %q", first.DocumentLink, want)
	}

	// Malformed href: the order survives without a document link.
	badLink := orders[1]
	if badLink.DocumentLink != "" {
		t.Errorf("DocumentLink = %q, want empty for malformed href", badLink.DocumentLink)
	}
	if badLink.Date != "15.02.2024" || badLink.Description != "Order dated 15.02.2024" {
		t.Errorf("date/description lost on malformed link: %+v", badLink)
	}

	// Absolute document links pass through unchanged.
	if orders[2].DocumentLink != "https://example.org/order3.pdf" {
		t.Errorf("DocumentLink = %q, want absolute passthrough", orders[2].DocumentLink)
	}

	// No anchor and no date cell: placeholders, not a dropped row.
	last := orders[3]
	if last.Date != orderDatePlaceholder {
		t.Errorf("Date = %q, want %q", last.Date, orderDatePlaceholder)
	}
	if last.DocumentLink != "" {
		t.Errorf("DocumentLink = %q, want empty", last.DocumentLink)
	}
}

func TestExtractOrdersIndicesAreStable(t *testing.T) {
	orders := newTestExtractor().ExtractOrders(ordersPage)
	want := []int{1, 2, 4, 5}
	if len(orders) != len(want) {
		t.Fatalf("expected %d orders, got %d", len(want), len(orders))
	}
	for i, order := range orders {
		if order.Index != want[i] {
			t.Errorf("orders[%d].Index = %d, want %d", i, order.Index, want[i])
		}
	}
}

func TestExtractOrdersHeaderRowDoesNotConsumeIndex(t *testing.T) {
	// Header written as a bare tr of th cells, no explicit tbody; the
	// parser folds it into a synthesized tbody, so it must be dropped by
	// cell shape, not markup shape, and the first order keeps index 1.
	html := `
<table id="caseTable">
  <tr><th>S.No</th><th>Order</th><th>Date</th></tr>
  <tr>
    <td>1</td>
    <td><a href="/app/orders/1.pdf">Order dated 01.02.2024</a></td>
    <td>01.02.2024</td>
  </tr>
  <tr>
    <td>2</td>
    <td><a href="/app/orders/2.pdf">Order dated 15.02.2024</a></td>
    <td>15.02.2024</td>
  </tr>
</table>`

	orders := newTestExtractor().ExtractOrders(html)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	for i, order := range orders {
		if order.Index != i+1 {
			t.Errorf("orders[%d].Index = %d, want %d", i, order.Index, i+1)
		}
	}
	if orders[0].Description != "Order dated 01.02.2024" {
		t.Errorf("first order Description = %q", orders[0].Description)
	}
}

func TestExtractOrdersMissingTable(t *testing.T) {
	orders := newTestExtractor().ExtractOrders(`<html><body><p>nothing here</p></body></html>`)
	if len(orders) != 0 {
		t.Errorf("expected no orders, got %d", len(orders))
	}
}
