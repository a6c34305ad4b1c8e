package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"lightning-cross/domain"
	"lightning-cross/matching"
	"lightning-cross/orderbook"
)

const (
	defaultLevels = 10
	maxLevels     = 500
	requestWait   = 5 * time.Second
	maxOrderBody  = 4096
)

// Engine is what the API needs from the matching engine
type Engine interface {
	Submit(ctx context.Context, side domain.Side, price domain.Price, quantity int64) (orderbook.SubmitResult, error)
	Snapshot(ctx context.Context, levels int) (orderbook.Snapshot, error)
	Orders(ctx context.Context, side domain.Side) ([]orderbook.OrderView, error)
	DepthAt(ctx context.Context, side domain.Side, price domain.Price) (int64, error)
}

// Server handles REST API and WebSocket connections
type Server struct {
	engine  Engine
	feed    *matching.TradeFeed
	scale   int32
	origins []string
	router  *mux.Router
	hub     *Hub
	log     *zap.Logger
}

// NewServer creates a new API server. feed may be nil, in which case the
// trade endpoints stay empty.
func NewServer(engine Engine, feed *matching.TradeFeed, scale int32, origins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		feed:    feed,
		scale:   scale,
		origins: origins,
		router:  mux.NewRouter(),
		hub:     NewHub(logger),
		log:     logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Book queries
	api.HandleFunc("/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/book/depth/{side}/{price}", s.handleGetDepth).Methods("GET")
	api.HandleFunc("/book/orders/{side}", s.handleGetOrders).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")

	// Order submission
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the CORS-wrapped router
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run starts the WebSocket hub and the trade pump. It returns when ctx is done.
func (s *Server) Run(ctx context.Context) {
	if s.feed == nil {
		s.hub.Run(ctx)
		return
	}

	// Subscribe before the hub accepts clients so none miss a trade
	trades, unsubscribe := s.feed.Subscribe(1024)
	defer unsubscribe()
	go s.hub.Run(ctx)

	for {
		select {
		case trade, ok := <-trades:
			if !ok {
				return
			}
			s.hub.Broadcast(WSMessage{Channel: "trades", Data: s.tradeInfo(trade)})
		case <-ctx.Done():
			return
		}
	}
}

// ListenAndServe serves HTTP on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.log.Info("api server stopped")
		return err
	}
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	levels := defaultLevels
	if v := r.URL.Query().Get("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxLevels {
			respondError(w, http.StatusBadRequest, "invalid levels", "levels must be 1.."+strconv.Itoa(maxLevels))
			return
		}
		levels = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestWait)
	defer cancel()

	snap, err := s.engine.Snapshot(ctx, levels)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.bookSnapshot(snap))
}

func (s *Server) handleGetDepth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	side, err := parseSideParam(vars["side"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}
	price, err := domain.ParsePrice(vars["price"], s.scale)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestWait)
	defer cancel()

	qty, err := s.engine.DepthAt(ctx, side, price)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DepthInfo{
		Side:     side.String(),
		Price:    price.Format(s.scale),
		Quantity: qty,
	})
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	side, err := parseSideParam(mux.Vars(r)["side"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestWait)
	defer cancel()

	orders, err := s.engine.Orders(ctx, side)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	response := make([]OrderInfo, len(orders))
	for i, o := range orders {
		response[i] = OrderInfo{
			ID:          o.ID,
			Side:        o.Side.String(),
			Price:       o.Price.Format(s.scale),
			Remaining:   o.Remaining,
			Original:    o.Original,
			SubmittedAt: o.SubmittedAt.UnixMilli(),
		}
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	response := []TradeInfo{}
	if s.feed != nil && s.feed.Tape() != nil {
		for _, trade := range s.feed.Tape().Recent(limit) {
			response = append(response, s.tradeInfo(trade))
		}
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOrderBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, err := domain.ParseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}
	price, err := domain.ParsePrice(req.Price, s.scale)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestWait)
	defer cancel()

	res, err := s.engine.Submit(ctx, side, price, req.Quantity)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	trades := make([]TradeInfo, len(res.Trades))
	for i, trade := range res.Trades {
		trades[i] = s.tradeInfo(trade)
	}
	respondJSON(w, http.StatusOK, OrderResponse{
		Status:    "Order Processed",
		OrderID:   res.OrderID,
		Remaining: res.Remaining,
		Trades:    trades,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ==============================
// Helpers
// ==============================

func (s *Server) bookSnapshot(snap orderbook.Snapshot) BookSnapshot {
	out := BookSnapshot{
		Symbol:       snap.Symbol,
		Bids:         s.priceLevels(snap.Bids),
		Asks:         s.priceLevels(snap.Asks),
		BidVolume:    snap.BidVolume,
		AskVolume:    snap.AskVolume,
		BidOrders:    snap.BidOrders,
		AskOrders:    snap.AskOrders,
		LastOrderID:  snap.LastOrderID,
		LastTradeSeq: snap.LastTradeSeq,
		Halted:       snap.Halted,
		Timestamp:    time.Now().UnixMilli(),
	}
	if snap.HasBid {
		bid := snap.BestBid.Format(s.scale)
		out.BestBid = &bid
	}
	if snap.HasAsk {
		ask := snap.BestAsk.Format(s.scale)
		out.BestAsk = &ask
	}
	if snap.HasBid && snap.HasAsk {
		spread := (snap.BestAsk - snap.BestBid).Format(s.scale)
		out.Spread = &spread
	}
	return out
}

func (s *Server) priceLevels(levels []orderbook.PriceLevel) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{
			Price:    l.Price.Format(s.scale),
			Quantity: l.Quantity,
			Orders:   l.Orders,
		}
	}
	return out
}

func (s *Server) tradeInfo(t domain.Trade) TradeInfo {
	return TradeInfo{
		ID:           t.ID(),
		Seq:          t.Seq,
		Price:        t.Price.Format(s.scale),
		Quantity:     t.Quantity,
		AskOrderID:   t.AskOrderID,
		BidOrderID:   t.BidOrderID,
		IsBuyerMaker: t.IsBuyerMaker,
		Timestamp:    t.ExecutedAt.UnixMilli(),
	}
}

func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder), errors.Is(err, domain.ErrParse):
		respondError(w, http.StatusBadRequest, "order rejected", err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded), errors.Is(err, matching.ErrEngineStopped):
		s.log.Error("engine unavailable", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "engine unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respondError(w, http.StatusGatewayTimeout, "engine busy", err.Error())
	default:
		s.log.Error("unexpected engine error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

// parseSideParam accepts B/S or buy/sell in any case
func parseSideParam(v string) (domain.Side, error) {
	switch strings.ToLower(v) {
	case "b", "buy", "bid", "bids":
		return domain.SideBuy, nil
	case "s", "sell", "ask", "asks":
		return domain.SideSell, nil
	default:
		return domain.ParseSide(v)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
