package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	mainnetRESTURL = "https://api.bybit.com"
	testnetRESTURL = "https://api-testnet.bybit.com"

	// 单次请求的网络超时上限
	requestTimeout = 5 * time.Second
)

// Client 是 Bybit v5 行情 REST 接口的轻量客户端
// 只读公有接口，不涉及签名
type Client struct {
	baseURL   string
	httpc     *http.Client
	logger    *zap.Logger
	closeOnce sync.Once
}

// NewClient 构造 REST 客户端
// baseURL 留空时根据 testnet 标志选择默认地址
func NewClient(testnet bool, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		if testnet {
			baseURL = testnetRESTURL
		} else {
			baseURL = mainnetRESTURL
		}
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

// orderbookResponse 是 /v5/market/orderbook 的响应外壳
type orderbookResponse struct {
	RetCode int         `json:"retCode"`
	RetMsg  string      `json:"retMsg"`
	Result  RawSnapshot `json:"result"`
}

// FetchSnapshot 拉取 L2 订单簿快照，返回交易所原生的 result 负载
// 传输层错误返回 error；交易所返回空快照时返回零值负载而不报错
func (c *Client) FetchSnapshot(ctx context.Context, symbol string, depth int) (RawSnapshot, error) {
	q := url.Values{}
	q.Set("category", "linear")
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(depth))

	endpoint := fmt.Sprintf("%s/v5/market/orderbook?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawSnapshot{}, fmt.Errorf("build orderbook request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return RawSnapshot{}, fmt.Errorf("fetch orderbook snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RawSnapshot{}, fmt.Errorf("orderbook request returned status %d", resp.StatusCode)
	}

	var envelope orderbookResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return RawSnapshot{}, fmt.Errorf("decode orderbook response: %w", err)
	}

	if envelope.RetCode != 0 {
		c.logger.Warn("Exchange returned non-zero retCode",
			zap.Int("retCode", envelope.RetCode), zap.String("retMsg", envelope.RetMsg))
	}

	return envelope.Result, nil
}

// Close 释放底层连接，幂等且在从未发起过请求时也安全
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.httpc.CloseIdleConnections()
	})
}
