// Package settlement wraps the NEAR Intents 1Click API used to execute the
// SOL to ZEC swap. All SDK types stay inside this package; callers see the
// Quote and ExecutionStatus types and the closed outcome mapping only.
package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Config holds settlement network settings. Zero fields are filled from
// the default tags.
type Config struct {
	// JWT is the 1Click API bearer token.
	JWT string

	OriginAsset          string        `default:"nep141:sol.omft.near"`
	DestinationAsset     string        `default:"nep141:zec.omft.near"`
	SlippageToleranceBps int           `default:"100"`
	QuoteDeadline        time.Duration `default:"24h"`
}

// QuoteParams are the inputs for a quote request. Dry quotes are priced
// without reserving a deposit address; firm quotes (Dry=false) create the
// remote intent and return the address to fund.
type QuoteParams struct {
	AmountInUnits    uint64
	RecipientAddress string
	RefundAddress    string
	Dry              bool
}

// Quote is the settlement network's answer to a quote request.
type Quote struct {
	DepositAddress string
	AmountOutUnits uint64
	TimeEstimate   time.Duration
}

// ExecutionStatus is one settlement poll result before outcome mapping.
type ExecutionStatus struct {
	RawStatus           string
	UpdatedAt           time.Time
	DestinationTxHashes []string
	IntentHashes        []string
	AmountOutUnits      *uint64
}

// Client talks to the 1Click API.
type Client struct {
	api    *oneclick.APIClient
	cfg    Config
	logger *zap.Logger
}

// NewClient builds a settlement client and logs a warning when the bearer
// token is close to expiry, since an expired token fails every quote.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply settlement defaults: %w", err)
	}
	if cfg.JWT == "" {
		return nil, fmt.Errorf("settlement JWT token is required")
	}

	if exp, err := TokenExpiry(cfg.JWT); err != nil {
		logger.Warn("Could not read settlement token expiry", zap.Error(err))
	} else if until := time.Until(exp); until <= 0 {
		logger.Error("Settlement token is expired", zap.Time("expired_at", exp))
	} else if until < 7*24*time.Hour {
		logger.Warn("Settlement token expires soon", zap.Time("expires_at", exp))
	}

	return &Client{
		api:    oneclick.NewAPIClient(oneclick.NewConfiguration()),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// TokenExpiry reads the exp claim from a JWT without verifying the
// signature. The token is only inspected, never trusted.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiration claim")
	}
	return exp.Time, nil
}

func (c *Client) authCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.cfg.JWT)
}

// RequestQuote asks 1Click to price the swap. Firm quotes reserve a
// one-time deposit address guaranteed unique for this attempt.
func (c *Client) RequestQuote(ctx context.Context, p QuoteParams) (*Quote, error) {
	refundTo := p.RefundAddress
	if refundTo == "" {
		// Dry quotes still require a refund address; the recipient
		// stands in since no funds can move on a dry quote.
		refundTo = p.RecipientAddress
	}

	req := oneclick.NewQuoteRequest(
		p.Dry,
		"EXACT_INPUT",
		float32(c.cfg.SlippageToleranceBps),
		c.cfg.OriginAsset,
		"ORIGIN_CHAIN",
		c.cfg.DestinationAsset,
		strconv.FormatUint(p.AmountInUnits, 10),
		refundTo,
		"ORIGIN_CHAIN",
		p.RecipientAddress,
		"DESTINATION_CHAIN",
		time.Now().Add(c.cfg.QuoteDeadline),
	)

	resp, httpResp, err := c.api.OneClickAPI.GetQuote(c.authCtx(ctx)).QuoteRequest(*req).Execute()
	if err != nil {
		return nil, apiError("get quote", httpResp, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("get quote: unexpected status %d", httpResp.StatusCode)
	}
	if resp == nil {
		return nil, fmt.Errorf("get quote: empty response")
	}

	quote := resp.GetQuote()
	amountOut, err := parseAmountOut(quote.GetAmountOut(), quote.GetAmountOutFormatted())
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	return &Quote{
		DepositAddress: quote.GetDepositAddress(),
		AmountOutUnits: amountOut,
		TimeEstimate:   time.Duration(quote.GetTimeEstimate()) * time.Second,
	}, nil
}

// GetExecutionStatus polls the swap state for a deposit address.
func (c *Client) GetExecutionStatus(ctx context.Context, depositAddress string) (*ExecutionStatus, error) {
	resp, httpResp, err := c.api.OneClickAPI.GetExecutionStatus(c.authCtx(ctx)).
		DepositAddress(depositAddress).
		Execute()
	if err != nil {
		return nil, apiError("get execution status", httpResp, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get execution status: unexpected status %d", httpResp.StatusCode)
	}

	status := &ExecutionStatus{
		RawStatus: resp.GetStatus(),
		UpdatedAt: resp.GetUpdatedAt(),
	}

	swap := resp.GetSwapDetails()
	for _, h := range swap.GetDestinationChainTxHashes() {
		status.DestinationTxHashes = append(status.DestinationTxHashes, h.GetHash())
	}
	for _, h := range swap.GetIntentHashes() {
		status.IntentHashes = append(status.IntentHashes, h)
	}

	if raw := swap.GetAmountOut(); raw != "" || swap.HasAmountOutFormatted() {
		amountOut, err := parseAmountOut(raw, swap.GetAmountOutFormatted())
		if err != nil {
			c.logger.Warn("Unparseable settlement amount out",
				zap.String("deposit_address", depositAddress),
				zap.Error(err))
		} else {
			status.AmountOutUnits = &amountOut
		}
	}

	return status, nil
}

// SubmitDepositTx tells 1Click about an observed deposit transaction so it
// can pick the swap up without waiting for its own chain scan.
func (c *Client) SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(depositAddress, txHash)

	_, httpResp, err := c.api.OneClickAPI.SubmitDepositTx(c.authCtx(ctx)).
		SubmitDepositTxRequest(*req).
		Execute()
	if err != nil {
		return apiError("submit deposit tx", httpResp, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated {
		return fmt.Errorf("submit deposit tx: unexpected status %d", httpResp.StatusCode)
	}
	return nil
}

// apiError extracts the error message 1Click puts in the response body,
// falling back to the transport error.
func apiError(op string, httpResp *http.Response, err error) error {
	if httpResp == nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(httpResp.Body, 1<<16))
	if readErr != nil || len(body) == 0 {
		return fmt.Errorf("%s: status %d: %w", op, httpResp.StatusCode, err)
	}

	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		return fmt.Errorf("%s: status %d: %s", op, httpResp.StatusCode, parsed.Message)
	}
	return fmt.Errorf("%s: status %d: %s", op, httpResp.StatusCode, string(body))
}
