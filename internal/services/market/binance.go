package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"MoodPulse/internal/domain/models"
	domsvc "MoodPulse/internal/domain/service"
	applogger "MoodPulse/pkg/logger"
)

// BinanceStream implements MarketStream over the Binance spot WebSocket
// miniTicker feed. Each tracked asset is subscribed as <asset>usdt.
type BinanceStream struct {
	websocketURL   string
	assets         []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	bufferSize     int
	logger         *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func NewBinanceStream(websocketURL string, assets []string, reconnectDelay, pingInterval time.Duration, bufferSize int, logger *applogger.Logger) *BinanceStream {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &BinanceStream{
		websocketURL:   websocketURL,
		assets:         assets,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		bufferSize:     bufferSize,
		logger:         logger,
	}
}

func (b *BinanceStream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	b.mu.Lock()
	b.conn = conn
	b.connected = true
	b.mu.Unlock()
	b.logger.Info("binance stream connected", applogger.String("url", b.websocketURL))
	return nil
}

func (b *BinanceStream) current() *websocket.Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

func (b *BinanceStream) Subscribe(ctx context.Context) error {
	conn := b.current()
	if conn == nil || !b.IsConnected() {
		return fmt.Errorf("binance not connected")
	}
	params := make([]string, 0, len(b.assets))
	for _, a := range b.assets {
		params = append(params, strings.ToLower(a)+"usdt@miniTicker")
	}
	msg := map[string]any{"method": "SUBSCRIBE", "params": params, "id": 1}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("binance subscribe: %w", err)
	}
	b.logger.Info("binance subscribed", applogger.Strings("streams", params))
	return nil
}

type miniTicker struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"` // ms
	Symbol    string `json:"s"`
	Close     string `json:"c"`
	Volume    string `json:"q"` // quote asset volume
}

// Read streams samples and errors over a snapshot of the current
// connection; after a reconnect the caller must Read again. Frames that
// are not miniTicker events (subscription acks, pings) are skipped. On
// backpressure the newest sample is dropped; the poll path still keeps
// the store current.
func (b *BinanceStream) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	samples := make(chan *models.Sample, b.bufferSize)
	errs := make(chan error, 1)
	conn := b.current()
	if conn == nil {
		errs <- fmt.Errorf("binance conn nil")
		close(samples)
		close(errs)
		return samples, errs
	}
	done := make(chan struct{})

	// The ping loop lives exactly as long as this Read's reader, so
	// reconnects do not accumulate pingers.
	go func() {
		ticker := time.NewTicker(b.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	go func() {
		defer close(samples)
		defer close(errs)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			_, raw, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("binance read: %w", err)
				return
			}
			var t miniTicker
			if err := json.Unmarshal(raw, &t); err != nil || t.EventType != "24hrMiniTicker" {
				continue
			}
			s, err := tickerToSample(t)
			if err != nil {
				b.logger.Warn("binance ticker parse failed",
					applogger.String("symbol", t.Symbol),
					applogger.Error(err),
				)
				continue
			}
			select {
			case samples <- s:
			default:
			}
		}
	}()

	return samples, errs
}

func tickerToSample(t miniTicker) (*models.Sample, error) {
	price, err := strconv.ParseFloat(t.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", t.Close, err)
	}
	volume, err := strconv.ParseFloat(t.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parse volume %q: %w", t.Volume, err)
	}
	return &models.Sample{
		Asset:     strings.ToUpper(strings.TrimSuffix(t.Symbol, "USDT")),
		Timestamp: time.UnixMilli(t.EventTime),
		Price:     price,
		Volume:    volume,
	}, nil
}

func (b *BinanceStream) Reconnect(ctx context.Context) error {
	_ = b.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.reconnectDelay):
	}
	if err := b.Connect(ctx); err != nil {
		return err
	}
	return b.Subscribe(ctx)
}

func (b *BinanceStream) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.connected = false
	b.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (b *BinanceStream) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

var _ domsvc.MarketStream = (*BinanceStream)(nil)
