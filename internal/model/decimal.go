package model

import "github.com/shopspring/decimal"

func init() {
    // Amounts go over the wire as JSON numbers, e.g. 120.5 not "120.5".
    decimal.MarshalJSONWithoutQuotes = true
}
