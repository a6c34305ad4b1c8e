package gateway

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lightning-cross/domain"
	"lightning-cross/orderbook"
)

const (
	// BufferSize caps what is read from one connection
	BufferSize = 1024

	// ReplyProcessed acknowledges an accepted order whether or not it traded
	ReplyProcessed = "Order Processed\n"

	replyRejected = "Order Rejected: "
)

// Submitter is the slice of the matching engine the gateway needs
type Submitter interface {
	Submit(ctx context.Context, side domain.Side, price domain.Price, quantity int64) (orderbook.SubmitResult, error)
}

// Server accepts one TCP connection per order (or a few newline-separated
// orders), submits each to the engine and writes one reply line per order.
type Server struct {
	engine      Submitter
	scale       int32
	readTimeout time.Duration
	log         *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    sync.WaitGroup
}

// NewServer creates a gateway; scale is the price tick scale
func NewServer(engine Submitter, scale int32, readTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:      engine,
		scale:       scale,
		readTimeout: readTimeout,
		log:         logger,
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then waits for
// in-flight connections to finish
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	s.log.Info("gateway listening", zap.String("addr", lis.Addr().String()))

	stop := context.AfterFunc(ctx, func() {
		lis.Close()
	})
	defer stop()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.conns.Wait()
				s.log.Info("gateway stopped")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.log.Warn("accept failed, retrying", zap.Error(err))
				continue
			}
			s.conns.Wait()
			return err
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// Addr returns the bound address once serving, nil before
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.log.With(
		zap.String("conn_id", uuid.NewString()),
		zap.String("remote", conn.RemoteAddr().String()),
	)

	if s.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	// Clients send one command and wait for the reply without closing their
	// side, so a single read is the whole request.
	buf := make([]byte, BufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		log.Warn("read failed", zap.Error(err))
		return
	}

	lines, fragment := commandLines(buf[:n])

	w := bufio.NewWriter(conn)
	for _, line := range lines {
		w.WriteString(s.process(ctx, log, line))
	}
	if fragment != "" {
		log.Warn("command cut at read limit", zap.String("fragment", fragment), zap.Int("limit", BufferSize))
		w.WriteString(replyRejected + "command exceeds " + strconv.Itoa(BufferSize) + "-byte read\n")
	}
	if err := w.Flush(); err != nil {
		log.Warn("write failed", zap.Error(err))
	}
}

// commandLines splits one read into commands. When the read filled the buffer
// without ending on a newline, the last line may have been cut mid-token; it
// is returned as fragment and must not be submitted.
func commandLines(data []byte) (lines []string, fragment string) {
	parts := strings.Split(string(data), "\n")
	if len(data) == BufferSize && data[len(data)-1] != '\n' {
		fragment = strings.TrimSpace(parts[len(parts)-1])
		parts = parts[:len(parts)-1]
	}
	for _, line := range parts {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, fragment
}

// process runs one command and returns its reply line
func (s *Server) process(ctx context.Context, log *zap.Logger, line string) string {
	cmd, err := ParseCommand(line, s.scale)
	if err != nil {
		log.Info("command rejected", zap.String("command", line), zap.Error(err))
		return replyRejected + err.Error() + "\n"
	}

	res, err := s.engine.Submit(ctx, cmd.Side, cmd.Price, cmd.Quantity)
	if err != nil {
		log.Warn("order rejected", zap.String("command", line), zap.Error(err))
		return replyRejected + err.Error() + "\n"
	}

	log.Info("order processed",
		zap.String("command", line),
		zap.Uint64("order_id", res.OrderID),
		zap.Int("trades", len(res.Trades)),
		zap.Int64("remaining", res.Remaining),
	)
	return ReplyProcessed
}
