package customs

import (
	"strings"

	"github.com/OpenNSW/customs/internal/declaration"
)

// TradeFlow is the direction goods cross the border.
type TradeFlow string

const (
	FlowImport TradeFlow = "IMPORT"
	FlowExport TradeFlow = "EXPORT"
)

// Params holds an office's fee schedule and its banned products and origins.
type Params struct {
	Fee                  FeeSchedule `json:"fee" toml:"fee"`
	BannedImportProducts []string    `json:"bannedImportProducts,omitempty" toml:"banned_import_products"`
	BannedExportProducts []string    `json:"bannedExportProducts,omitempty" toml:"banned_export_products"`
	BannedImportOrigins  []string    `json:"bannedImportOrigins,omitempty" toml:"banned_import_origins"`
	BannedExportOrigins  []string    `json:"bannedExportOrigins,omitempty" toml:"banned_export_origins"`
}

// Validate checks the fee schedule and rejects blank ban entries.
func (p Params) Validate() error {
	if err := p.Fee.Validate(); err != nil {
		return err
	}
	lists := map[string][]string{
		"bannedImportProducts": p.BannedImportProducts,
		"bannedExportProducts": p.BannedExportProducts,
		"bannedImportOrigins":  p.BannedImportOrigins,
		"bannedExportOrigins":  p.BannedExportOrigins,
	}
	for field, list := range lists {
		for _, entry := range list {
			if strings.TrimSpace(entry) == "" {
				return &InvalidFieldError{Field: field, Reason: "entry must not be empty"}
			}
		}
	}
	return nil
}

// Screen checks a declaration against the ban lists for the given flow. A product is
// banned when its code or its name is listed. The origin checked is the departure for
// imports and the destination for exports.
func (p Params) Screen(flow TradeFlow, d declaration.Declaration) error {
	var products, origins []string
	var originField, origin string
	switch flow {
	case FlowImport:
		products, origins = p.BannedImportProducts, p.BannedImportOrigins
		originField, origin = "departure", d.Departure()
	case FlowExport:
		products, origins = p.BannedExportProducts, p.BannedExportOrigins
		originField, origin = "destination", d.Destination()
	default:
		return &InvalidFieldError{Field: "flow", Value: string(flow), Reason: "unknown trade flow"}
	}

	if contains(products, d.ProductCode()) {
		return &InvalidFieldError{Field: "productCode", Value: d.ProductCode(), Reason: "product is banned"}
	}
	if contains(products, d.ProductName()) {
		return &InvalidFieldError{Field: "productName", Value: d.ProductName(), Reason: "product is banned"}
	}
	if contains(origins, origin) {
		return &InvalidFieldError{Field: originField, Value: origin, Reason: "origin is banned"}
	}
	return nil
}

func contains(list []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, entry := range list {
		if strings.EqualFold(strings.TrimSpace(entry), v) {
			return true
		}
	}
	return false
}
