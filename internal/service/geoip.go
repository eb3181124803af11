// internal/service/geoip.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"clickguard/internal/metrics"
	"clickguard/internal/models"
)

// Cache is the key/value store GeoIP results are kept in
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

const ipAPIFields = "status,message,country,countryCode,regionName,city,isp,hosting,proxy,query"

// GeoIPClient resolves visitor IPs through an ip-api compatible endpoint
type GeoIPClient struct {
	baseURL     string
	homeCountry string
	cache       Cache
	cacheTTL    time.Duration
	httpClient  *http.Client
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewGeoIPClient(baseURL, homeCountry string, timeout, cacheTTL time.Duration, cache Cache, m *metrics.Metrics, logger *zap.Logger) *GeoIPClient {
	return &GeoIPClient{
		baseURL:     baseURL,
		homeCountry: homeCountry,
		cache:       cache,
		cacheTTL:    cacheTTL,
		httpClient:  &http.Client{Timeout: timeout},
		metrics:     m,
		logger:      logger,
	}
}

// Lookup returns location data for ip. Loopback and private addresses
// resolve to the home country without a network call.
func (c *GeoIPClient) Lookup(ctx context.Context, ip string) (*models.GeoInfo, error) {
	if ip == "" {
		return nil, nil
	}

	if isLocalIP(ip) {
		c.metrics.GeoLookup("local")
		return &models.GeoInfo{IP: ip, Country: "Local", CountryCode: c.homeCountry, City: "Local"}, nil
	}

	cacheKey := fmt.Sprintf("geoip:%s", ip)
	if cached, err := c.getCached(ctx, cacheKey); err == nil {
		c.metrics.GeoLookup("cache")
		return cached, nil
	}

	info, err := c.fetch(ctx, ip)
	if err != nil {
		c.metrics.GeoLookup("error")
		return nil, err
	}
	c.metrics.GeoLookup("api")

	c.cacheInfo(ctx, cacheKey, info)
	return info, nil
}

func (c *GeoIPClient) fetch(ctx context.Context, ip string) (*models.GeoInfo, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=%s", c.baseURL, url.PathEscape(ip), ipAPIFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geoip request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geoip request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoip API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("failed to read geoip response: %w", err)
	}

	var apiResp struct {
		Status      string `json:"status"`
		Message     string `json:"message"`
		Country     string `json:"country"`
		CountryCode string `json:"countryCode"`
		RegionName  string `json:"regionName"`
		City        string `json:"city"`
		ISP         string `json:"isp"`
		Hosting     bool   `json:"hosting"`
		Proxy       bool   `json:"proxy"`
		Query       string `json:"query"`
	}

	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse geoip response: %w", err)
	}

	if apiResp.Status != "success" {
		return nil, fmt.Errorf("geoip lookup failed for %s: %s", ip, apiResp.Message)
	}

	// ip-api exposes no VPN flag; IsVPN stays false
	return &models.GeoInfo{
		IP:          apiResp.Query,
		Country:     apiResp.Country,
		CountryCode: apiResp.CountryCode,
		Region:      apiResp.RegionName,
		City:        apiResp.City,
		ISP:         apiResp.ISP,
		IsProxy:     apiResp.Proxy,
		IsHosting:   apiResp.Hosting,
	}, nil
}

// Cache helpers

func (c *GeoIPClient) getCached(ctx context.Context, key string) (*models.GeoInfo, error) {
	if c.cache == nil {
		return nil, fmt.Errorf("cache disabled")
	}

	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var info models.GeoInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *GeoIPClient) cacheInfo(ctx context.Context, key string, info *models.GeoInfo) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Warn("failed to cache geoip result", zap.Error(err), zap.String("key", key))
	}
}

func isLocalIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified()
}
