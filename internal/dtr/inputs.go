package dtr

// Field keys shared by the form, the layouts and the bot command.
const (
	KeyEntryPrice    = "entry_price"
	KeyMarkPrice     = "mark_price"
	KeyATH           = "ath"
	KeyTokenSymbol   = "token_symbol"
	KeyPercentChange = "percent_change"
)

// DefaultPrice pre-fills the three price fields of the form.
const DefaultPrice = "0.00"

// Inputs are the four free-text values of one submission.
type Inputs struct {
	EntryPrice  string
	MarkPrice   string
	ATH         string
	TokenSymbol string
}

// DefaultInputs returns the values the empty form starts with.
func DefaultInputs() Inputs {
	return Inputs{
		EntryPrice: DefaultPrice,
		MarkPrice:  DefaultPrice,
		ATH:        DefaultPrice,
	}
}

// PercentChange derives the percent-change from the entry and mark prices.
func (in Inputs) PercentChange() string {
	return PercentChange(in.EntryPrice, in.MarkPrice)
}

// Text returns the string drawn for a layout field key. Prices are drawn
// exactly as typed.
func (in Inputs) Text(key string) (string, bool) {
	switch key {
	case KeyEntryPrice:
		return in.EntryPrice, true
	case KeyMarkPrice:
		return in.MarkPrice, true
	case KeyATH:
		return in.ATH, true
	case KeyTokenSymbol:
		return in.TokenSymbol, true
	case KeyPercentChange:
		return in.PercentChange(), true
	default:
		return "", false
	}
}

func isKnownKey(key string) bool {
	_, ok := Inputs{}.Text(key)
	return ok
}
