package symptom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

// HTTPParserConfig configures HTTPParser.
type HTTPParserConfig struct {
	Endpoint string
	Timeout  time.Duration
	// Model is forwarded to the service, which may host several pipelines.
	Model string
}

// HTTPParser delegates parsing to an external dependency-parse service.
//
//	POST {endpoint}/parse {"text": "...", "model": "..."}
//	200  {"tokens": [{"text","lemma","pos","dep","head","left_edge","right_edge","idx"}]}
type HTTPParser struct {
	endpoint string
	model    string
	client   *http.Client
}

type parseRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type parseResponse struct {
	Tokens []Token `json:"tokens"`
}

// NewHTTPParser creates an HTTPParser.  A nil client gets one with
// cfg.Timeout.
func NewHTTPParser(cfg HTTPParserConfig, client *http.Client) (*HTTPParser, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "parser endpoint is required")
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPParser{endpoint: endpoint, model: cfg.Model, client: client}, nil
}

// Parse implements Parser.
func (p *HTTPParser) Parse(ctx context.Context, text string) (*Doc, error) {
	body, err := json.Marshal(parseRequest{Text: text, Model: p.model})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode parse request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/parse", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeParserFailed, "build parse request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, errors.ErrCodeParserFailed, "parse request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf(errors.ErrCodeParserFailed, "parser returned status %d", resp.StatusCode).
			WithDetail(strings.TrimSpace(string(msg)))
	}

	var out parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeParserFailed, "decode parse response")
	}
	doc := &Doc{Text: text, Tokens: out.Tokens}
	if err := validateDoc(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// validateDoc rejects parses whose indexes would address tokens or bytes
// outside the document.
func validateDoc(doc *Doc) error {
	n := len(doc.Tokens)
	for i, t := range doc.Tokens {
		switch {
		case t.Head < 0 || t.Head >= n:
			return errors.Newf(errors.ErrCodeParserFailed, "token %d has head %d out of range", i, t.Head)
		case t.LeftEdge < 0 || t.RightEdge >= n || t.LeftEdge > t.RightEdge:
			return errors.Newf(errors.ErrCodeParserFailed, "token %d has subtree [%d,%d] out of range", i, t.LeftEdge, t.RightEdge)
		case t.Start < 0 || t.Start+len(t.Text) > len(doc.Text):
			return errors.Newf(errors.ErrCodeParserFailed, "token %d offset %d out of range", i, t.Start).
				WithDetail(fmt.Sprintf("text_len=%d", len(doc.Text)))
		}
	}
	return nil
}
