package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/iqrachat/internal/errors"
)

// Query sends the text (and optional attachment) and returns the reply text
func (c *Client) Query(ctx context.Context, req QueryRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", apierrors.ErrEmptyInput
	}

	if c.IsClosed() {
		return "", fmt.Errorf("client is closed")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, contentType, err := buildBody(text, req)
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apierrors.NewTimeoutError(fmt.Sprintf("no reply within %s", c.timeout))
		}
		return "", apierrors.NewNetworkError("query", c.endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("query service responded")

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, c.endpoint, "query failed", string(errorBody))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", apierrors.NewNetworkError("read response", c.endpoint, err)
	}

	return parseResponse(data, c.responsePath)
}

// buildBody encodes the request as JSON, or as multipart form data when a file is attached
func buildBody(text string, req QueryRequest) (io.Reader, string, error) {
	if req.Attachment.IsZero() {
		payload, err := json.Marshal(map[string]string{FieldQuery: text})
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(payload), "application/json", nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField(FieldQuery, text); err != nil {
		return nil, "", fmt.Errorf("failed to write query field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldFile, escapeQuotes(req.Attachment.Name)))
	header.Set("Content-Type", req.Attachment.MIMEType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(req.Attachment.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// parseResponse validates the payload shape and extracts the reply text
func parseResponse(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("body is not valid JSON", "")
	}

	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return "", apierrors.NewParseError("missing reply field", path)
	}
	if result.Type != gjson.String {
		return "", apierrors.NewParseError(fmt.Sprintf("reply field has type %s", result.Type), path)
	}

	return result.String(), nil
}
