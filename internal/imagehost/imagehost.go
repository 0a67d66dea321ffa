// Package imagehost wraps the Cloudinary-style asset service used for
// product images.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sda-shop/shop-backend/internal/apperr"
)

const folder = "sda-ecommerce"

type Host interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Destroy(ctx context.Context, assetURL string) error
}

type Client struct {
	BaseURL   string
	CloudName string
	APIKey    string
	APISecret string
	HTTP      *http.Client
}

func NewClient(baseURL, cloudName, apiKey, apiSecret string) *Client {
	return &Client{
		BaseURL:   baseURL,
		CloudName: cloudName,
		APIKey:    apiKey,
		APISecret: apiSecret,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload pushes the local file into the product image folder and returns the
// durable URL.
func (c *Client) Upload(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", apperr.InvalidInput("cannot read upload %s: %v", localPath, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	_ = mw.WriteField("folder", folder)
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1_1/"+c.CloudName+"/image/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(c.APIKey, c.APISecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", apperr.Upstream("image host unreachable: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Upstream("image upload responded %d", resp.StatusCode)
	}

	var out struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SecureURL == "" {
		return "", apperr.Upstream("image host returned no url")
	}
	return out.SecureURL, nil
}

// Destroy removes the remote asset behind a durable URL. The public id is the
// folder plus the URL's last path segment without its extension.
func (c *Client) Destroy(ctx context.Context, assetURL string) error {
	publicID := PublicID(assetURL)
	body := strings.NewReader("public_id=" + publicID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1_1/"+c.CloudName+"/image/destroy", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.APIKey, c.APISecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apperr.Upstream("image host unreachable: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if out.Result != "ok" {
		return apperr.Upstream("failed to delete image asset %s", publicID)
	}
	return nil
}

func PublicID(assetURL string) string {
	parts := strings.Split(assetURL, "/")
	last := parts[len(parts)-1]
	if i := strings.LastIndex(last, "."); i > 0 {
		last = last[:i]
	}
	return folder + "/" + last
}
