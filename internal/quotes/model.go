package quotes

// globalQuoteResponse represents the raw JSON response for a quote request.
// The upstream API wraps all price fields in a "Global Quote" object with
// numbered string keys; an explicit error arrives as "Error Message" and
// throttling messages arrive as "Note" or "Information".
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		PreviousClose string `json:"08. previous close"`
	} `json:"Global Quote"`
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

// overviewResponse represents the raw JSON response for a company overview
// request. All numeric values are strings; absent fundamentals are the
// literal string "None".
type overviewResponse struct {
	Name             string `json:"Name"`
	FiftyTwoWeekHigh string `json:"52WeekHigh"`
	FiftyTwoWeekLow  string `json:"52WeekLow"`
	PERatio          string `json:"PERatio"`
	DividendYield    string `json:"DividendYield"`
	ErrorMessage     string `json:"Error Message"`
	Note             string `json:"Note"`
	Information      string `json:"Information"`
}

// Quote is the application's parsed view of one symbol's price and
// fundamentals. Pointer fields are nil when the upstream had no data.
type Quote struct {
	Symbol              string
	CompanyName         string
	Price               float64
	DayChange           float64
	DayChangePercentage float64
	FiftyTwoWeekHigh    *float64
	FiftyTwoWeekLow     *float64
	PERatio             *float64
	DividendYield       *float64
}
