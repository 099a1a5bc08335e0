package sofra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecakir/sofra-cli/internal/domain"
)

const (
	defaultBaseURL        = "https://api.sofra.app"
	defaultRequestTimeout = 10 * time.Second
	defaultPlatformHeader = "cli"
	defaultLocale         = "en"
)

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries Sofra backend endpoints. It performs no retries and keeps
// no response cache; every call is a single bounded request.
type Client struct {
	httpClient     HTTPClient
	baseURL        string
	locale         string
	requestTimeout time.Duration
	log            zerolog.Logger
}

// Option applies Client options.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL replaces the default API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithLocale sets the accept-language header value.
func WithLocale(locale string) Option {
	return func(c *Client) {
		c.locale = locale
	}
}

// WithRequestTimeout bounds each upstream call.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

// WithLogger routes per-request trace events to the given logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a production Sofra gateway client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{},
		baseURL:        defaultBaseURL,
		locale:         defaultLocale,
		requestTimeout: defaultRequestTimeout,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) headers(extra map[string]string, auth *AuthContext) map[string]string {
	headers := map[string]string{
		"accept-language": c.locale,
		"x-sofra-client":  defaultPlatformHeader,
	}
	if auth != nil {
		if token := strings.TrimSpace(auth.Token); token != "" {
			headers["Authorization"] = "Bearer " + token
		}
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

func (c *Client) doJSON(
	ctx context.Context,
	method string,
	path string,
	params url.Values,
	body any,
	out any,
	auth *AuthContext,
) error {
	rawURL := c.baseURL + path
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	var bodyReader io.Reader
	headers := c.headers(nil, auth)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
		headers["Content-Type"] = "application/json"
	}
	return c.do(ctx, method, rawURL, bodyReader, headers, out)
}

func (c *Client) do(
	ctx context.Context,
	method string,
	rawURL string,
	body io.Reader,
	headers map[string]string,
	out any,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	startedAt := time.Now()
	c.log.Debug().Str("method", method).Str("url", rawURL).Msg("upstream request")

	res, err := c.httpClient.Do(req)
	if err != nil {
		upstreamErr := &UpstreamRequestError{
			Method:  method,
			URL:     rawURL,
			Timeout: isTimeoutCause(err),
			Cause:   err,
		}
		c.traceDone(method, rawURL, 0, startedAt, upstreamErr)
		return upstreamErr
	}
	defer func() {
		_ = res.Body.Close()
	}()

	rawResponse, err := io.ReadAll(res.Body)
	if err != nil {
		upstreamErr := &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Timeout:    isTimeoutCause(err),
			Cause:      fmt.Errorf("read response body: %w", err),
		}
		c.traceDone(method, rawURL, res.StatusCode, startedAt, upstreamErr)
		return upstreamErr
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		upstreamErr := &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
		}
		c.traceDone(method, rawURL, res.StatusCode, startedAt, upstreamErr)
		return upstreamErr
	}

	c.traceDone(method, rawURL, res.StatusCode, startedAt, nil)
	if out == nil || len(rawResponse) == 0 {
		return nil
	}
	if err := json.Unmarshal(rawResponse, out); err != nil {
		return &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
			Cause:      fmt.Errorf("decode response body: %w", err),
		}
	}
	return nil
}

func (c *Client) traceDone(method, rawURL string, statusCode int, startedAt time.Time, reqErr error) {
	event := c.log.Debug().
		Str("method", method).
		Str("url", rawURL).
		Dur("duration", time.Since(startedAt).Round(time.Millisecond))
	if reqErr != nil {
		event.Err(reqErr).Msg("upstream request failed")
		return
	}
	event.Int("status", statusCode).Msg("upstream response")
}

func locationParams(location domain.Location) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(location.Lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(location.Lon, 'f', 6, 64))
	return params
}

func pageParams(params url.Values, page Page) url.Values {
	if page.Page > 0 {
		params.Set("page", strconv.Itoa(page.Page))
	}
	if page.Limit > 0 {
		params.Set("limit", strconv.Itoa(page.Limit))
	}
	return params
}

type restaurantsEnvelope struct {
	Restaurants []domain.Restaurant `json:"restaurants"`
}

type restaurantEnvelope struct {
	Restaurant domain.Restaurant `json:"restaurant"`
}

type cartEnvelope struct {
	Items []domain.CartItem `json:"items"`
}

type addressesEnvelope struct {
	Addresses []domain.Address `json:"addresses"`
}

type addressEnvelope struct {
	Address domain.Address `json:"address"`
}

type reportEnvelope struct {
	Report domain.Report `json:"report"`
}

// Restaurants lists venues near a location.
func (c *Client) Restaurants(ctx context.Context, location domain.Location, page Page) ([]domain.Restaurant, error) {
	params := pageParams(locationParams(location), page)
	var payload restaurantsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/v1/restaurants", params, nil, &payload, nil); err != nil {
		return nil, err
	}
	return payload.Restaurants, nil
}

// RestaurantByID loads a detailed restaurant payload.
func (c *Client) RestaurantByID(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return nil, fmt.Errorf("restaurant id is required")
	}
	var payload restaurantEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/v1/restaurants/"+url.PathEscape(restaurantID), nil, nil, &payload, nil); err != nil {
		return nil, err
	}
	return &payload.Restaurant, nil
}

// Listings returns one page of a restaurant catalog.
func (c *Client) Listings(ctx context.Context, restaurantID string, page Page) (domain.ListingPage, error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return domain.ListingPage{}, fmt.Errorf("restaurant id is required")
	}
	var payload domain.ListingPage
	path := "/v1/restaurants/" + url.PathEscape(restaurantID) + "/listings"
	if err := c.doJSON(ctx, http.MethodGet, path, pageParams(url.Values{}, page), nil, &payload, nil); err != nil {
		return domain.ListingPage{}, err
	}
	return payload, nil
}

// Search queries venues by free text near a location.
func (c *Client) Search(ctx context.Context, location domain.Location, query string) ([]domain.Restaurant, error) {
	body := map[string]any{
		"q":   strings.TrimSpace(query),
		"lat": location.Lat,
		"lon": location.Lon,
	}
	var payload restaurantsEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/v1/search", nil, body, &payload, nil); err != nil {
		return nil, err
	}
	return payload.Restaurants, nil
}

// Recommendations returns flash-deal venues recommended for the account.
func (c *Client) Recommendations(ctx context.Context, location domain.Location, auth AuthContext) ([]domain.Restaurant, error) {
	var payload restaurantsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/v1/recommendations", locationParams(location), nil, &payload, &auth); err != nil {
		return nil, err
	}
	return payload.Restaurants, nil
}

// Cart returns the server-side cart contents.
func (c *Client) Cart(ctx context.Context, auth AuthContext) ([]domain.CartItem, error) {
	var payload cartEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/v1/cart", nil, nil, &payload, &auth); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// CartAdd adds one item snapshot and returns the updated cart.
func (c *Client) CartAdd(ctx context.Context, item CartItemInput, auth AuthContext) ([]domain.CartItem, error) {
	var payload cartEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/v1/cart/items", nil, item, &payload, &auth); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// CartRemove removes one listing from the cart and returns the updated cart.
func (c *Client) CartRemove(ctx context.Context, listingID string, auth AuthContext) ([]domain.CartItem, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, fmt.Errorf("listing id is required")
	}
	var payload cartEnvelope
	if err := c.doJSON(ctx, http.MethodDelete, "/v1/cart/items/"+url.PathEscape(listingID), nil, nil, &payload, &auth); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// CartClear empties the server-side cart.
func (c *Client) CartClear(ctx context.Context, auth AuthContext) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/cart", nil, nil, nil, &auth)
}

// Addresses returns saved delivery addresses.
func (c *Client) Addresses(ctx context.Context, auth AuthContext) ([]domain.Address, error) {
	var payload addressesEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/v1/addresses", nil, nil, &payload, &auth); err != nil {
		return nil, err
	}
	return payload.Addresses, nil
}

// AddressCreate saves a new delivery address.
func (c *Client) AddressCreate(ctx context.Context, input AddressInput, auth AuthContext) (*domain.Address, error) {
	if strings.TrimSpace(input.Line) == "" {
		return nil, fmt.Errorf("address line is required")
	}
	var payload addressEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/v1/addresses", nil, input, &payload, &auth); err != nil {
		return nil, err
	}
	return &payload.Address, nil
}

// AddressDelete removes a saved delivery address by id.
func (c *Client) AddressDelete(ctx context.Context, addressID string, auth AuthContext) error {
	addressID = strings.TrimSpace(addressID)
	if addressID == "" {
		return fmt.Errorf("address id is required")
	}
	return c.doJSON(ctx, http.MethodDelete, "/v1/addresses/"+url.PathEscape(addressID), nil, nil, nil, &auth)
}

// SubmitReport uploads a user report with an optional file attachment.
func (c *Client) SubmitReport(ctx context.Context, input ReportInput, auth AuthContext) (*domain.Report, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, fmt.Errorf("report subject is required")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("subject", input.Subject); err != nil {
		return nil, fmt.Errorf("write report subject: %w", err)
	}
	if err := form.WriteField("body", input.Body); err != nil {
		return nil, fmt.Errorf("write report body: %w", err)
	}
	if len(input.Attachment) > 0 {
		name := strings.TrimSpace(input.AttachmentName)
		if name == "" {
			name = "attachment"
		}
		part, err := form.CreateFormFile("attachment", name)
		if err != nil {
			return nil, fmt.Errorf("create report attachment: %w", err)
		}
		if _, err := part.Write(input.Attachment); err != nil {
			return nil, fmt.Errorf("write report attachment: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalize report form: %w", err)
	}

	headers := c.headers(map[string]string{"Content-Type": form.FormDataContentType()}, &auth)
	var payload reportEnvelope
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/reports", &buf, headers, &payload); err != nil {
		return nil, err
	}
	return &payload.Report, nil
}

// RegisterPushToken registers a device push-notification token.
func (c *Client) RegisterPushToken(ctx context.Context, token string, auth AuthContext) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("push token is required")
	}
	body := map[string]any{
		"token":    token,
		"platform": defaultPlatformHeader,
	}
	return c.doJSON(ctx, http.MethodPost, "/v1/notifications/push-token", nil, body, nil, &auth)
}

// SubmitPurchase places the order built at checkout time.
func (c *Client) SubmitPurchase(ctx context.Context, input PurchaseInput, auth AuthContext) (*PurchaseResult, error) {
	if strings.TrimSpace(input.RestaurantID) == "" {
		return nil, fmt.Errorf("restaurant id is required")
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("purchase items are required")
	}
	var payload PurchaseResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/orders", nil, input, &payload, &auth); err != nil {
		return nil, err
	}
	return &payload, nil
}
