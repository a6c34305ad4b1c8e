package api

// API request/response types for REST endpoints and WebSocket messages.
// Prices cross this boundary as fixed-point decimal strings.

// OrderRequest submits a limit order
type OrderRequest struct {
	Side     string `json:"side"`     // "B" or "S"
	Price    string `json:"price"`    // decimal, e.g. "100.25"
	Quantity int64  `json:"quantity"` // positive integer
}

// OrderResponse acknowledges an accepted order
type OrderResponse struct {
	Status    string      `json:"status"` // always "Order Processed"
	OrderID   uint64      `json:"orderId"`
	Remaining int64       `json:"remaining"` // quantity left resting
	Trades    []TradeInfo `json:"trades"`    // executions caused by this order
}

// TradeInfo represents one execution
type TradeInfo struct {
	ID           string `json:"id"`
	Seq          uint64 `json:"seq"`
	Price        string `json:"price"`
	Quantity     int64  `json:"quantity"`
	AskOrderID   uint64 `json:"askOrderId"`
	BidOrderID   uint64 `json:"bidOrderId"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
	Timestamp    int64  `json:"timestamp"` // Unix milliseconds
}

// PriceLevel aggregates one price on one side
type PriceLevel struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Orders   int    `json:"orders"`
}

// BookSnapshot represents current order book state
type BookSnapshot struct {
	Symbol       string       `json:"symbol"`
	BestBid      *string      `json:"bestBid"` // null when no bids
	BestAsk      *string      `json:"bestAsk"` // null when no asks
	Spread       *string      `json:"spread"`
	Bids         []PriceLevel `json:"bids"` // Sorted high to low
	Asks         []PriceLevel `json:"asks"` // Sorted low to high
	BidVolume    int64        `json:"bidVolume"`
	AskVolume    int64        `json:"askVolume"`
	BidOrders    int          `json:"bidOrders"`
	AskOrders    int          `json:"askOrders"`
	LastOrderID  uint64       `json:"lastOrderId"`
	LastTradeSeq uint64       `json:"lastTradeSeq"`
	Halted       bool         `json:"halted"`
	Timestamp    int64        `json:"timestamp"` // Unix milliseconds
}

// OrderInfo represents one resting order
type OrderInfo struct {
	ID          uint64 `json:"id"`
	Side        string `json:"side"`
	Price       string `json:"price"`
	Remaining   int64  `json:"remaining"`
	Original    int64  `json:"original"`
	SubmittedAt int64  `json:"submittedAt"` // Unix milliseconds
}

// DepthInfo is the resting quantity at one price
type DepthInfo struct {
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WSMessage wraps every WebSocket push
type WSMessage struct {
	Channel string    `json:"channel"` // "trades"
	Data    TradeInfo `json:"data"`
}
