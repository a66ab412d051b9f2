package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/swassyman/heart/internal/contracts"
)

type Lang string

const (
	LangEnglish   Lang = "en"
	LangMalayalam Lang = "ml"
)

func ParseLang(raw string) (Lang, error) {
	switch Lang(strings.ToLower(strings.TrimSpace(raw))) {
	case "", LangEnglish:
		return LangEnglish, nil
	case LangMalayalam:
		return LangMalayalam, nil
	default:
		return "", &contracts.ValidationError{Entity: "report", Field: "lang", Reason: fmt.Sprintf("unsupported language %q", raw)}
	}
}

type Request struct {
	PropertyID string    `json:"propertyId"`
	Role       string    `json:"role"`
	Lang       Lang      `json:"lang"`
	AIAnalysis *Analysis `json:"aiAnalysis,omitempty"`
}

// RoleLabel is the role spelling the report generator expects.
func RoleLabel(role contracts.Role) string {
	switch role {
	case contracts.RoleBuyer:
		return "Buyer"
	case contracts.RoleBuilder:
		return "Builder"
	case contracts.RoleInspector:
		return "Inspector"
	default:
		return string(role)
	}
}

// Filename is the download name offered to the browser.
func Filename(role contracts.Role, propertyID string) string {
	return fmt.Sprintf("%s_Report_%s.pdf", RoleLabel(role), propertyID)
}

const maxReportBytes = 32 << 20

type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient posts to endpoint. A nil httpClient gets one with timeout.
func NewClient(endpoint string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Generate asks the report service for a PDF. Any failure is a
// *contracts.TransportError carrying the status and error text returned.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal report request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &contracts.TransportError{Op: "generate report", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBytes))
	if err != nil {
		return nil, &contracts.TransportError{Op: "read report", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &contracts.TransportError{
			Op:         "generate report",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		}
	}
	return payload, nil
}
