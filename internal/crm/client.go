package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned when upstream reports the entity gone.
var ErrNotFound = errors.New("entity not found")

// API is the upstream persistence surface the engine reconciles against.
// It is opaque: the engine only produces payloads and consumes entities.
type API interface {
	CreateOrder(ctx context.Context, payload *OrderPayload) (Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	UpdateOrder(ctx context.Context, id string, changes any) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	CreateProduct(ctx context.Context, payload *Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, changes any) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UploadItemImage(ctx context.Context, orderID string, itemIndex int, filename string, r io.Reader) (string, error)
}

// Client talks to the CRM persistence API over JSON/HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) CreateOrder(ctx context.Context, payload *OrderPayload) (Order, error) {
	var out Order
	if err := c.doJSON(ctx, http.MethodPost, "/orders", payload, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (Order, error) {
	var out Order
	if err := c.doJSON(ctx, http.MethodGet, "/orders/"+id, nil, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id string, changes any) (Order, error) {
	var out Order
	if err := c.doJSON(ctx, http.MethodPut, "/orders/"+id, changes, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.doJSON(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, payload *Product) (Product, error) {
	var out Product
	if err := c.doJSON(ctx, http.MethodPost, "/products", payload, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, changes any) (Product, error) {
	var out Product
	if err := c.doJSON(ctx, http.MethodPut, "/products/"+id, changes, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.doJSON(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadItemImage sends one image for a line item as multipart form data
// and returns the stored image URL.
func (c *Client) UploadItemImage(ctx context.Context, orderID string, itemIndex int, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	path := fmt.Sprintf("/orders/%s/items/%d/image", orderID, itemIndex)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.URL, nil
}

// --- Helpers ---

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}
