// Package lineitem converts between the flat packed order fields
// (product_name, catalog_number, quantity, total_price) and a structured
// list of line items. Orders store multiple products comma-joined into the
// name and catalog-number columns, with a " (xN)" marker on names whose
// quantity is above one.
package lineitem

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Item is one product line within an order.
type Item struct {
	Name          string  `json:"name"`
	CatalogNumber string  `json:"catalog_number"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
}

// separator joins packed segments. Both the name list and the catalog-number
// list use it, with positional correspondence between the two.
const separator = ", "

// quantityMarker matches a trailing " (xN)" quantity suffix on a name segment.
var quantityMarker = regexp.MustCompile(`(?i)\s*\(x(\d+)\)$`)

// Decode unpacks the flat order fields into line items. It never fails:
// packed strings come from manual data entry, so malformed input falls back
// to a single raw item with zero quantity, and the second return value flags
// the order for manual review.
//
// For single-line orders the order's own total quantity is authoritative and
// any quantity marker on the name is treated as redundant display data. For
// multi-line orders the per-item unit price is not recoverable from the
// aggregate total and is reported as zero.
func Decode(productName, catalogNumber string, totalQuantity int, totalPrice float64) ([]Item, bool) {
	names := strings.Split(productName, separator)

	if len(names) == 1 {
		name := quantityMarker.ReplaceAllString(productName, "")
		unitPrice := totalPrice
		if totalQuantity > 0 {
			unitPrice = totalPrice / float64(totalQuantity)
		}
		return []Item{{
			Name:          name,
			CatalogNumber: strings.TrimSpace(catalogNumber),
			Quantity:      totalQuantity,
			UnitPrice:     unitPrice,
		}}, false
	}

	var codes []string
	if strings.TrimSpace(catalogNumber) != "" {
		codes = strings.Split(catalogNumber, separator)
	}
	if len(codes) > len(names) {
		// More catalog numbers than names: positional alignment is lost and
		// guessing would misattribute codes. Keep the raw strings intact.
		return []Item{{
			Name:          productName,
			CatalogNumber: catalogNumber,
			Quantity:      0,
			UnitPrice:     0,
		}}, true
	}

	items := make([]Item, 0, len(names))
	for i, segment := range names {
		quantity := 1
		name := segment
		if m := quantityMarker.FindStringSubmatch(segment); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				quantity = n
			}
			name = quantityMarker.ReplaceAllString(segment, "")
		}

		code := ""
		if i < len(codes) {
			code = strings.TrimSpace(codes[i])
		}

		items = append(items, Item{
			Name:          name,
			CatalogNumber: code,
			Quantity:      quantity,
			UnitPrice:     0,
		})
	}

	return items, false
}

// Encode packs line items back into the flat order fields. Items with
// quantity above one get the " (xN)" name marker. Empty catalog numbers are
// filtered from the joined code list, which breaks positional alignment when
// only some items carry codes; callers that need lossless round-trips must
// keep catalog-number presence homogeneous across items.
func Encode(items []Item) (productName, catalogNumber string, totalQuantity int, totalPrice float64) {
	names := make([]string, 0, len(items))
	codes := make([]string, 0, len(items))

	for _, item := range items {
		segment := item.Name
		if item.Quantity > 1 {
			segment = fmt.Sprintf("%s (x%d)", item.Name, item.Quantity)
		}
		names = append(names, segment)

		if item.CatalogNumber != "" {
			codes = append(codes, item.CatalogNumber)
		}

		totalQuantity += item.Quantity
		totalPrice += item.UnitPrice * float64(item.Quantity)
	}

	return strings.Join(names, separator), strings.Join(codes, separator), totalQuantity, totalPrice
}
