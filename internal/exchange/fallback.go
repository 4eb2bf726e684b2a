package exchange

import "github.com/shopspring/decimal"

// Static USD-based rates used when the live API is unreachable.
// Last updated: May 2025. Refresh when the upstream table drifts.
var fallbackTable = map[string]string{
	"USD": "1",
	"KES": "150.50",  // Kenyan Shilling
	"NGN": "750.25",  // Nigerian Naira
	"GHS": "11.80",   // Ghanaian Cedi
	"XAF": "600.00",  // CFA Franc BEAC
	"ZAR": "18.75",   // South African Rand
	"TZS": "2300.00", // Tanzanian Shilling
	"UGX": "3700.00", // Ugandan Shilling
	"XOF": "600.00",  // CFA Franc BCEAO
	"ZMW": "20.50",   // Zambian Kwacha
	"EUR": "0.92",    // Euro
	"GBP": "0.79",    // British Pound
}

func fallbackUSDRates() map[string]decimal.Decimal {
	table := make(map[string]decimal.Decimal, len(fallbackTable))
	for code, raw := range fallbackTable {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		table[code] = rate
	}
	return table
}
