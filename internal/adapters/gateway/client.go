// Package gateway implements ports.TradingVenue against the terminal bridge:
// a JSON-over-HTTP order and market data API with a websocket tick stream.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
)

// Client implements the ports.TradingVenue interface over the bridge API.
type Client struct {
	baseURL    string
	wsBaseURL  string
	apiToken   string
	httpClient *http.Client
	logger     ports.Logger

	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// Config holds configuration specific to the gateway adapter.
type Config struct {
	BaseURL              string
	WSBaseURL            string
	APIToken             string
	Timeout              time.Duration
	Logger               ports.Logger
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// New creates a new bridge gateway adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for gateway client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: gateway base URL is required", ports.ErrConfigurationError)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reconnectDelay := cfg.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = 1 * time.Second
	}
	maxAttempts := cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &Client{
		baseURL:              cfg.BaseURL,
		wsBaseURL:            cfg.WSBaseURL,
		apiToken:             cfg.APIToken,
		httpClient:           &http.Client{Timeout: timeout},
		logger:               cfg.Logger,
		reconnectDelay:       reconnectDelay,
		maxReconnectAttempts: maxAttempts,
	}, nil
}

// apiError is the bridge's JSON error envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("bridge error %d: %s", e.Code, e.Message)
}

// doRequest issues one HTTP call and decodes the response into out. A nil
// out discards the body.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, body, out interface{}) error {
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ports.ErrContextCanceled
		}
		return fmt.Errorf("%w: %v", ports.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Code != 0 {
			return c.mapError(resp.StatusCode, &ae)
		}
		return fmt.Errorf("%w: status %d: %s", ports.ErrVenueUnavailable, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// mapError translates the bridge error envelope into standardized ports errors.
func (c *Client) mapError(status int, ae *apiError) error {
	var mapped error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		mapped = ports.ErrAuthenticationFailed
	case status == http.StatusNotFound:
		mapped = ports.ErrNotFound
	case status == http.StatusGatewayTimeout:
		mapped = ports.ErrNoResponse
	case ae.Code == 1001: // terminal not connected
		mapped = ports.ErrVenueUnavailable
	case ae.Code == 1002: // symbol unknown or not visible
		mapped = ports.ErrNotFound
	case ae.Code == 1003: // no tick data
		mapped = ports.ErrNoTickData
	case ae.Code == 1004: // candle history unavailable
		mapped = ports.ErrNoCandleData
	default:
		mapped = ports.ErrUnknown
	}
	return fmt.Errorf("%w: %v", mapped, ae)
}

// Ping checks connectivity to the bridge.
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodGet, "/api/v1/ping", nil, nil, nil)
}

type tickResponse struct {
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Time int64   `json:"time_msc"`
}

// GetTick retrieves the current best bid/ask for a symbol.
func (c *Client) GetTick(ctx context.Context, symbol string) (*domain.Tick, error) {
	params := url.Values{"symbol": {symbol}}
	var resp tickResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/tick", params, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Bid == 0 && resp.Ask == 0 {
		return nil, fmt.Errorf("%w: %s", ports.ErrNoTickData, symbol)
	}
	return &domain.Tick{
		Bid:  resp.Bid,
		Ask:  resp.Ask,
		Time: time.UnixMilli(resp.Time),
	}, nil
}

type candleResponse struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume float64 `json:"tick_volume"`
}

// GetCandles retrieves the most recent candles, oldest first.
func (c *Client) GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	params := url.Values{
		"symbol":    {symbol},
		"timeframe": {string(tf)},
		"count":     {strconv.Itoa(limit)},
	}
	var resp []candleResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/candles", params, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ports.ErrNoCandleData, symbol, tf)
	}

	candles := make([]domain.Candle, len(resp))
	for i, r := range resp {
		candles[i] = domain.Candle{
			OpenTime: time.Unix(r.Time, 0),
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.TickVolume,
		}
	}
	return candles, nil
}

type symbolInfoResponse struct {
	Symbol     string  `json:"symbol"`
	Point      float64 `json:"point"`
	Digits     int     `json:"digits"`
	VolumeMin  float64 `json:"volume_min"`
	VolumeMax  float64 `json:"volume_max"`
	VolumeStep float64 `json:"volume_step"`
	TradeMode  int     `json:"trade_mode"`
	PipValue   float64 `json:"pip_value"`
}

// GetSymbolInfo retrieves the trading rules for a symbol.
func (c *Client) GetSymbolInfo(ctx context.Context, symbol string) (*domain.SymbolInfo, error) {
	params := url.Values{"symbol": {symbol}}
	var resp symbolInfoResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/symbol", params, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Point <= 0 {
		return nil, fmt.Errorf("%w: symbol %s has no point size", ports.ErrInvalidRequest, symbol)
	}
	return &domain.SymbolInfo{
		Symbol:       resp.Symbol,
		Point:        resp.Point,
		PipSize:      resp.Point * 10,
		PipValue:     resp.PipValue,
		VolumeMin:    resp.VolumeMin,
		VolumeMax:    resp.VolumeMax,
		VolumeStep:   resp.VolumeStep,
		TradeAllowed: resp.TradeMode != 0,
	}, nil
}

type accountResponse struct {
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	FreeMargin float64 `json:"margin_free"`
}

// GetAccountInfo retrieves the current account state.
func (c *Client) GetAccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	var resp accountResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/account", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &domain.AccountInfo{
		Balance:    resp.Balance,
		Equity:     resp.Equity,
		Margin:     resp.Margin,
		FreeMargin: resp.FreeMargin,
	}, nil
}

// CalcMargin returns the margin required to open the given order.
func (c *Client) CalcMargin(ctx context.Context, req ports.OrderRequest) (float64, error) {
	body := map[string]interface{}{
		"symbol": req.Symbol,
		"side":   string(req.Direction),
		"volume": req.Volume,
		"price":  req.Price,
	}
	var resp struct {
		Margin float64 `json:"margin"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/margin", nil, body, &resp); err != nil {
		return 0, err
	}
	return resp.Margin, nil
}

type orderResultResponse struct {
	RetCode int     `json:"retcode"`
	Ticket  int64   `json:"order"`
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
	Comment string  `json:"comment"`
}

func (r orderResultResponse) toDomain() *ports.OrderResult {
	return &ports.OrderResult{
		RetCode: ports.RetCode(r.RetCode),
		Ticket:  r.Ticket,
		Price:   r.Price,
		Volume:  r.Volume,
		Comment: r.Comment,
	}
}

// SubmitOrder sends an order to the bridge. A retcode of zero with an empty
// comment means the terminal never answered; that surfaces as ErrNoResponse
// so the executor can retry.
func (c *Client) SubmitOrder(ctx context.Context, req ports.OrderRequest) (*ports.OrderResult, error) {
	body := map[string]interface{}{
		"symbol":      req.Symbol,
		"side":        string(req.Direction),
		"kind":        string(req.Kind),
		"volume":      req.Volume,
		"price":       req.Price,
		"stop_price":  req.StopPrice,
		"sl":          req.StopLoss,
		"tp":          req.TakeProfit,
		"deviation":   req.Deviation,
		"comment":     req.Comment,
		"client_id":   req.ClientID,
	}
	if !req.ExpiresAt.IsZero() {
		body["expiration"] = req.ExpiresAt.Unix()
	}

	var resp orderResultResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/order", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.RetCode == 0 {
		return nil, fmt.Errorf("%w: order %s %s", ports.ErrNoResponse, req.Symbol, req.Direction)
	}
	return resp.toDomain(), nil
}

type positionResponse struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      int     `json:"type"` // 0 buy, 1 sell
	Volume    float64 `json:"volume"`
	PriceOpen float64 `json:"price_open"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Time      int64   `json:"time"`
	Profit    float64 `json:"profit"`
	Comment   string  `json:"comment"`
}

// OpenPositions retrieves the open positions for a symbol.
func (c *Client) OpenPositions(ctx context.Context, symbol string) ([]domain.Position, error) {
	params := url.Values{"symbol": {symbol}}
	var resp []positionResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/positions", params, nil, &resp); err != nil {
		return nil, err
	}

	positions := make([]domain.Position, len(resp))
	for i, p := range resp {
		dir := domain.Long
		if p.Type == 1 {
			dir = domain.Short
		}
		positions[i] = domain.Position{
			Ticket:     p.Ticket,
			Symbol:     p.Symbol,
			Direction:  dir,
			Volume:     p.Volume,
			EntryPrice: p.PriceOpen,
			StopLoss:   p.SL,
			TakeProfit: p.TP,
			OpenedAt:   time.Unix(p.Time, 0),
			Mode:       domain.ModeFromComment(p.Comment),
			ProfitUSD:  p.Profit,
			Comment:    p.Comment,
		}
	}
	return positions, nil
}

// ModifyPosition updates the stop-loss and take-profit of an open position.
func (c *Client) ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit float64) (*ports.OrderResult, error) {
	body := map[string]interface{}{
		"ticket": ticket,
		"sl":     stopLoss,
		"tp":     takeProfit,
	}
	var resp orderResultResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/position/modify", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.RetCode == 0 {
		return nil, fmt.Errorf("%w: modify position %d", ports.ErrNoResponse, ticket)
	}
	return resp.toDomain(), nil
}

// ClosePosition closes an open position at market.
func (c *Client) ClosePosition(ctx context.Context, ticket int64, deviation int) (*ports.OrderResult, error) {
	body := map[string]interface{}{
		"ticket":    ticket,
		"deviation": deviation,
	}
	var resp orderResultResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/position/close", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.RetCode == 0 {
		return nil, fmt.Errorf("%w: close position %d", ports.ErrNoResponse, ticket)
	}
	return resp.toDomain(), nil
}
