package tradegrp

import "github.com/shopspring/decimal"

type accountQuote struct {
	StoredBalance decimal.Decimal `json:"puk_balance"`
	PukPrice      decimal.Decimal `json:"puk_price"`
	BTCPrice      decimal.Decimal `json:"btc_price"`
}
