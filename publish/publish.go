// Package publish implements core.Deployer by posting content to the URL of a publishing connection.
//
// The remote side receives POST {url}/publish, {url}/unpublish and {url}/preview with the content as JSON body.
// A preview response is a JSON object with a "url" member.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/wansing/schemacms/core"
)

type HTTPDeployer struct {
	client *http.Client
	logger zerolog.Logger
}

func NewHTTPDeployer(logger zerolog.Logger, timeout time.Duration) *HTTPDeployer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDeployer{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (d *HTTPDeployer) post(ctx context.Context, conn *core.Connection, action string, c *core.Content) ([]byte, error) {

	if conn.URL == "" {
		return nil, &core.ValidationError{Field: "connection", Reason: fmt.Sprintf(`connection "%s" has no url`, conn.ID)}
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	var target = strings.TrimSuffix(conn.URL, "/") + "/" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "schemacms")
	req.Header.Set("X-Content-ID", c.ID)

	var start = time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn().Err(err).Str("connection", conn.ID).Str("url", target).Msg("deploy request failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	d.logger.Debug().
		Str("connection", conn.ID).
		Str("action", action).
		Str("content", c.ID).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("deploy request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned %s", target, resp.Status)
	}
	return body, nil
}

func (d *HTTPDeployer) Publish(ctx context.Context, conn *core.Connection, c *core.Content) error {
	_, err := d.post(ctx, conn, "publish", c)
	return err
}

func (d *HTTPDeployer) Unpublish(ctx context.Context, conn *core.Connection, c *core.Content) error {
	_, err := d.post(ctx, conn, "unpublish", c)
	return err
}

// Preview returns the "url" member of the response. If there is none, it falls back to the connection url plus the content url.
func (d *HTTPDeployer) Preview(ctx context.Context, conn *core.Connection, c *core.Content) (string, error) {
	body, err := d.post(ctx, conn, "preview", c)
	if err != nil {
		return "", err
	}
	if url := gjson.GetBytes(body, "url"); url.Exists() && url.String() != "" {
		return url.String(), nil
	}
	return strings.TrimSuffix(conn.URL, "/") + c.URL(core.DefaultLanguage), nil
}
