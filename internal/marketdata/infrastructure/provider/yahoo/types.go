package yahoo

// quoteResponse v7 行情接口响应
type quoteResponse struct {
	QuoteResponse struct {
		Result []quotePayload `json:"result"`
		Error  *apiError      `json:"error"`
	} `json:"quoteResponse"`
}

// quotePayload 单个标的行情，数值字段可能缺失，统一用指针接收
type quotePayload struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  *string  `json:"shortName"`
	LongName                   *string  `json:"longName"`
	Currency                   *string  `json:"currency"`
	FullExchangeName           *string  `json:"fullExchangeName"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	Price                      *float64 `json:"price"`
	RegularMarketChange        *float64 `json:"regularMarketChange"`
	Change                     *float64 `json:"change"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
	ChangePercent              *float64 `json:"changePercent"`
	RegularMarketOpen          *float64 `json:"regularMarketOpen"`
	Open                       *float64 `json:"open"`
	RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh"`
	DayHigh                    *float64 `json:"dayHigh"`
	RegularMarketDayLow        *float64 `json:"regularMarketDayLow"`
	DayLow                     *float64 `json:"dayLow"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
	PreviousClose              *float64 `json:"previousClose"`
	RegularMarketVolume        *int64   `json:"regularMarketVolume"`
	Volume                     *int64   `json:"volume"`
	MarketCap                  *int64   `json:"marketCap"`
	RegularMarketTime          *int64   `json:"regularMarketTime"`
}

// chartResponse v8 K 线接口响应
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency        string `json:"currency"`
				Symbol          string `json:"symbol"`
				ExchangeName    string `json:"exchangeName"`
				DataGranularity string `json:"dataGranularity"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					// 使用指针以兼容 null 数据点
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// searchResponse v1 搜索接口响应
type searchResponse struct {
	Quotes []struct {
		Symbol    string  `json:"symbol"`
		ShortName *string `json:"shortname"`
		LongName  *string `json:"longname"`
		ExchDisp  *string `json:"exchDisp"`
		TypeDisp  *string `json:"typeDisp"`
		Currency  *string `json:"currency"`
	} `json:"quotes"`
	Error *apiError `json:"error"`
}

// apiError 上游错误体
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
