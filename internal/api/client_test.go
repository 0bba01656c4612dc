package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/iqrachat/internal/errors"
	"github.com/diogo/iqrachat/internal/models"
)

// fakeDoer records the request and replays a canned response
type fakeDoer struct {
	status  int
	body    string
	err     error
	block   bool
	lastReq *http.Request
	payload []byte
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.lastReq = req
	if req.Body != nil {
		f.payload, _ = io.ReadAll(req.Body)
	}
	if f.block {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Header:     http.Header{},
	}, nil
}

func newTestClient(t *testing.T, doer *fakeDoer, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithHTTPClient(doer)}, opts...)
	c, err := NewClient("https://ai.example.test/query", opts...)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestNewClient_EmptyEndpoint(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Error("expected error for empty endpoint")
	}
}

func TestClient_Query_Success(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"response":"hi there"}`}
	c := newTestClient(t, doer, WithHeader("X-Api-Key", "secret"))

	reply, err := c.Query(context.Background(), QueryRequest{Text: "  hello  "})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if reply != "hi there" {
		t.Errorf("Query() = %q, want %q", reply, "hi there")
	}

	if got := doer.lastReq.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := doer.lastReq.Header.Get("X-Api-Key"); got != "secret" {
		t.Errorf("X-Api-Key = %q", got)
	}
	if q := gjson.GetBytes(doer.payload, FieldQuery).String(); q != "hello" {
		t.Errorf("payload query = %q, want trimmed text", q)
	}
}

func TestClient_Query_CustomResponsePath(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"data":{"answer":"nested"}}`}
	c := newTestClient(t, doer, WithResponsePath("data.answer"))

	reply, err := c.Query(context.Background(), QueryRequest{Text: "q"})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if reply != "nested" {
		t.Errorf("Query() = %q", reply)
	}
}

func TestClient_Query_Multipart(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"response":"# Summary"}`}
	c := newTestClient(t, doer)

	att := &models.Attachment{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("file body"), Size: 9}
	if _, err := c.Query(context.Background(), QueryRequest{Text: "summarize", Attachment: att}); err != nil {
		t.Fatalf("Query() error: %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(doer.lastReq.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("Content-Type = %q (%v)", mediaType, err)
	}

	reader := multipart.NewReader(strings.NewReader(string(doer.payload)), params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm() error: %v", err)
	}
	if got := form.Value[FieldQuery]; len(got) != 1 || got[0] != "summarize" {
		t.Errorf("query field = %v", got)
	}
	files := form.File[FieldFile]
	if len(files) != 1 || files[0].Filename != "notes.txt" {
		t.Fatalf("file part = %v", files)
	}
}

func TestClient_Query_Failures(t *testing.T) {
	tests := []struct {
		name     string
		doer     *fakeDoer
		wantKind apierrors.Kind
	}{
		{"invalid json", &fakeDoer{status: 200, body: `not json`}, apierrors.KindInvalidResponseFormat},
		{"missing field", &fakeDoer{status: 200, body: `{"other":"x"}`}, apierrors.KindInvalidResponseFormat},
		{"wrong type", &fakeDoer{status: 200, body: `{"response":42}`}, apierrors.KindInvalidResponseFormat},
		{"transport", &fakeDoer{err: errors.New("dial tcp: connection refused")}, apierrors.KindNoResponseReceived},
		{"rate limited", &fakeDoer{status: 429, body: `{"error":"slow down"}`}, apierrors.KindRateLimited},
		{"unavailable", &fakeDoer{status: 503}, apierrors.KindServiceUnavailable},
		{"server error", &fakeDoer{status: 500, body: "boom"}, apierrors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.doer)
			_, err := c.Query(context.Background(), QueryRequest{Text: "hello"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apierrors.Classify(err); got != tt.wantKind {
				t.Errorf("Classify() = %s, want %s (err: %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestClient_Query_ErrorBodyKept(t *testing.T) {
	c := newTestClient(t, &fakeDoer{status: 500, body: "trace id 123"})
	_, err := c.Query(context.Background(), QueryRequest{Text: "hello"})
	if body := apierrors.GetResponseBody(err); body != "trace id 123" {
		t.Errorf("GetResponseBody() = %q", body)
	}
}

func TestClient_Query_Timeout(t *testing.T) {
	c := newTestClient(t, &fakeDoer{block: true}, WithTimeout(20*time.Millisecond))

	_, err := c.Query(context.Background(), QueryRequest{Text: "hello"})
	if !apierrors.IsTimeoutError(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if apierrors.Classify(err) != apierrors.KindNoResponseReceived {
		t.Errorf("timeout should classify as NoResponseReceived")
	}
}

func TestClient_Query_EmptyInput(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"response":"x"}`}
	c := newTestClient(t, doer)

	_, err := c.Query(context.Background(), QueryRequest{Text: "   "})
	if !errors.Is(err, apierrors.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if doer.lastReq != nil {
		t.Error("no request should be sent for empty input")
	}
}

func TestClient_Close(t *testing.T) {
	c := newTestClient(t, &fakeDoer{status: 200, body: `{"response":"x"}`})
	c.Close()

	if !c.IsClosed() {
		t.Error("client should be closed")
	}
	if _, err := c.Query(context.Background(), QueryRequest{Text: "hi"}); err == nil {
		t.Error("expected error from closed client")
	}
}

func TestMockClient(t *testing.T) {
	m := &MockClient{Reply: "ok"}
	reply, err := m.Query(context.Background(), QueryRequest{Text: "a"})
	if err != nil || reply != "ok" {
		t.Errorf("Query() = %q, %v", reply, err)
	}
	if m.Calls() != 1 || m.LastRequest().Text != "a" {
		t.Errorf("recorder mismatch: calls=%d last=%+v", m.Calls(), m.LastRequest())
	}
}
