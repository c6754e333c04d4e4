// Package universe is the single source of truth for the scanned symbol
// lists: US-listed mega-caps (market cap > $200B) plus the SPDR sector ETFs.
package universe

// Benchmark is the index proxy every relative metric is measured against.
const Benchmark = "SPY"

// Symbols is the default mega-cap stock universe.
var Symbols = []string{
	// Technology
	"AAPL", "MSFT", "NVDA", "AVGO", "ORCL", "AMD", "CSCO", "CRM",
	"ACN", "ADBE", "TXN", "QCOM", "INTC", "IBM", "INTU", "AMAT",
	"NOW", "SHOP", "PLTR",

	// Communication Services
	"GOOGL", "META", "NFLX", "TMUS", "DIS", "CMCSA", "VZ", "T",

	// Consumer Discretionary
	"AMZN", "TSLA", "HD", "MCD", "TJX", "LOW", "BKNG", "NKE", "SBUX",

	// Financials
	"JPM", "BAC", "WFC", "GS", "MS", "BLK", "SPGI", "AXP",
	"C", "BX", "ICE", "CB", "MCO", "CME", "AON", "MMC",

	// Healthcare
	"LLY", "UNH", "JNJ", "MRK", "ABBV", "ABT", "TMO", "PFE",
	"AMGN", "DHR", "ISRG", "MDT", "BMY", "GILD", "SYK", "VRTX",
	"BSX", "ELV", "REGN", "ZTS",

	// Energy
	"XOM", "CVX", "COP", "EOG", "SLB", "PXD", "MPC",

	// Industrials
	"CAT", "GE", "RTX", "HON", "UNP", "BA", "DE", "LMT",
	"UPS", "ADP", "GD", "ITW", "ETN", "WM", "EMR",

	// Consumer Staples
	"PG", "COST", "KO", "PEP", "WMT", "PM", "MO", "MDLZ",
	"CL", "TGT", "STZ",

	// Utilities
	"NEE", "SO", "DUK", "CEG",

	// Real Estate
	"PLD", "AMT", "EQIX", "SPG",

	// Materials
	"LIN", "APD", "SHW", "FCX", "NEM",
}

// SectorETFs lists the SPDR sector ETFs used as sector tags.
var SectorETFs = []string{
	"XLK", "XLF", "XLV", "XLE", "XLY", "XLI", "XLC", "XLP", "XLU", "XLRE", "XLB",
}

// SectorMap maps each stock to its sector ETF. Must stay in sync with Symbols.
var SectorMap = map[string]string{
	// Technology (XLK)
	"AAPL": "XLK", "MSFT": "XLK", "NVDA": "XLK", "AVGO": "XLK",
	"ORCL": "XLK", "AMD": "XLK", "CSCO": "XLK", "CRM": "XLK",
	"ACN": "XLK", "ADBE": "XLK", "TXN": "XLK", "QCOM": "XLK",
	"INTC": "XLK", "IBM": "XLK", "INTU": "XLK", "AMAT": "XLK",
	"NOW": "XLK", "SHOP": "XLK", "PLTR": "XLK",

	// Communication Services (XLC)
	"GOOGL": "XLC", "META": "XLC", "NFLX": "XLC", "TMUS": "XLC",
	"DIS": "XLC", "CMCSA": "XLC", "VZ": "XLC", "T": "XLC",

	// Consumer Discretionary (XLY)
	"AMZN": "XLY", "TSLA": "XLY", "HD": "XLY", "MCD": "XLY",
	"TJX": "XLY", "LOW": "XLY", "BKNG": "XLY", "NKE": "XLY",
	"SBUX": "XLY",

	// Financials (XLF)
	"JPM": "XLF", "BAC": "XLF", "WFC": "XLF", "GS": "XLF",
	"MS": "XLF", "BLK": "XLF", "SPGI": "XLF", "AXP": "XLF",
	"C": "XLF", "BX": "XLF", "ICE": "XLF", "CB": "XLF",
	"MCO": "XLF", "CME": "XLF", "AON": "XLF", "MMC": "XLF",

	// Healthcare (XLV)
	"LLY": "XLV", "UNH": "XLV", "JNJ": "XLV", "MRK": "XLV",
	"ABBV": "XLV", "ABT": "XLV", "TMO": "XLV", "PFE": "XLV",
	"AMGN": "XLV", "DHR": "XLV", "ISRG": "XLV", "MDT": "XLV",
	"BMY": "XLV", "GILD": "XLV", "SYK": "XLV", "VRTX": "XLV",
	"BSX": "XLV", "ELV": "XLV", "REGN": "XLV", "ZTS": "XLV",

	// Energy (XLE)
	"XOM": "XLE", "CVX": "XLE", "COP": "XLE", "EOG": "XLE",
	"SLB": "XLE", "PXD": "XLE", "MPC": "XLE",

	// Industrials (XLI)
	"CAT": "XLI", "GE": "XLI", "RTX": "XLI", "HON": "XLI",
	"UNP": "XLI", "BA": "XLI", "DE": "XLI", "LMT": "XLI",
	"UPS": "XLI", "ADP": "XLI", "GD": "XLI", "ITW": "XLI",
	"ETN": "XLI", "WM": "XLI", "EMR": "XLI",

	// Consumer Staples (XLP)
	"PG": "XLP", "COST": "XLP", "KO": "XLP", "PEP": "XLP",
	"WMT": "XLP", "PM": "XLP", "MO": "XLP", "MDLZ": "XLP",
	"CL": "XLP", "TGT": "XLP", "STZ": "XLP",

	// Utilities (XLU)
	"NEE": "XLU", "SO": "XLU", "DUK": "XLU", "CEG": "XLU",

	// Real Estate (XLRE)
	"PLD": "XLRE", "AMT": "XLRE", "EQIX": "XLRE", "SPG": "XLRE",

	// Materials (XLB)
	"LIN": "XLB", "APD": "XLB", "SHW": "XLB", "FCX": "XLB", "NEM": "XLB",
}

// Unmapped returns the symbols that have no entry in sectors. A nil map
// checks against the default SectorMap.
func Unmapped(symbols []string, sectors map[string]string) []string {
	if sectors == nil {
		sectors = SectorMap
	}
	var missing []string
	for _, s := range symbols {
		if _, ok := sectors[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
