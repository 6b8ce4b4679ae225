package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/your-org/cart-sync/internal/domain/cart"
)

func render(w io.Writer, format string, items cart.Cart) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Items  cart.Cart   `json:"items"`
			Totals cart.Totals `json:"totals"`
		}{items, items.Totals()})
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tPRICE\tSUBTOTAL\tSTATUS")
	for _, item := range items {
		name := item.Product.Name
		if item.Product.LowStock() {
			name += fmt.Sprintf(" (only %d left)", item.Product.Stock)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			item.ID, name, item.Quantity,
			item.Product.Price.StringFixed(2), item.Subtotal().StringFixed(2), item.Status)
	}

	totals := items.Totals()
	fmt.Fprintf(tw, "\t%d lines\t%d\t\t%s\t\n", totals.ItemCount, totals.TotalQuantity, totals.SubTotal.StringFixed(2))
	return tw.Flush()
}
