// internal/figma/client.go

// Package figma fetches and condenses design files into the token payload
// the wizard consumes as optional context.
package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"sitewizard/internal/common/config"
	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/common/httpclient"
	"sitewizard/internal/common/logger"
	"sitewizard/internal/models"
)

// RateLimitError carries the design tool's 429 payload to the UI
// unmodified.
type RateLimitError struct {
	models.FigmaRateLimit
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("figma rate limited, retry after %ds", e.RetryAfter)
}

// Client reads design files through the Figma REST API.
type Client struct {
	http    *httpclient.Client
	baseURL string
	token   string
	log     logger.Logger
}

func NewClient(cfg config.FigmaConfig, log logger.Logger) *Client {
	return &Client{
		http:    httpclient.NewClient(cfg.Timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		log:     log,
	}
}

// figmaFile is the subset of the file response the analysis needs.
type figmaFile struct {
	Name     string    `json:"name"`
	Document figmaNode `json:"document"`
}

type figmaNode struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	Children     []figmaNode `json:"children,omitempty"`
	Fills        []figmaFill `json:"fills,omitempty"`
	CornerRadius float64     `json:"cornerRadius,omitempty"`
	ItemSpacing  float64     `json:"itemSpacing,omitempty"`
	Style        *struct {
		FontFamily string  `json:"fontFamily,omitempty"`
		FontSize   float64 `json:"fontSize,omitempty"`
	} `json:"style,omitempty"`
}

type figmaFill struct {
	Type  string `json:"type"`
	Color *struct {
		R float64 `json:"r"`
		G float64 `json:"g"`
		B float64 `json:"b"`
	} `json:"color,omitempty"`
}

// AnalyzeFile fetches one design file and extracts its page names and
// design tokens.
func (c *Client) AnalyzeFile(ctx context.Context, fileKey string) (*models.FigmaAnalysis, error) {
	if fileKey == "" {
		return nil, wizerrors.New(wizerrors.CategoryValidation, "figma file key is required")
	}
	if c.token == "" {
		return nil, wizerrors.New(wizerrors.CategoryAuth, "figma access token not configured")
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/v1/files/"+fileKey, nil)
	if err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryInternal, "building figma request", err)
	}
	req.Header.Set("X-Figma-Token", c.token)

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return nil, wizerrors.Classify(err).WithProvider("figma")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, c.rateLimit(resp)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, wizerrors.New(wizerrors.CategoryAuth, "figma rejected the access token")
	case resp.StatusCode == http.StatusNotFound:
		return nil, wizerrors.New(wizerrors.CategoryValidation, "figma file not found: "+fileKey)
	case resp.StatusCode != http.StatusOK:
		return nil, wizerrors.New(wizerrors.CategoryAPIError, "figma returned status "+strconv.Itoa(resp.StatusCode))
	}

	var file figmaFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryAPIError, "decoding figma file", err)
	}

	analysis := c.analyze(file)
	c.log.Info("figma file analyzed", map[string]interface{}{
		"file":   analysis.FileName,
		"pages":  len(analysis.Pages),
		"colors": len(analysis.DesignTokens.Colors),
	})
	return analysis, nil
}

func (c *Client) rateLimit(resp *http.Response) error {
	limit := models.FigmaRateLimit{RetryAfter: 60}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			limit.RetryAfter = secs
		}
	}
	// Figma includes plan details in the 429 body; decode failures keep the
	// header-derived value.
	var body struct {
		RetryAfter  int    `json:"retryAfter"`
		PlanTier    string `json:"planTier"`
		UpgradeLink string `json:"upgradeLink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.RetryAfter > 0 {
			limit.RetryAfter = body.RetryAfter
		}
		limit.PlanTier = body.PlanTier
		limit.UpgradeLink = body.UpgradeLink
	}
	return &RateLimitError{FigmaRateLimit: limit}
}

func (c *Client) analyze(file figmaFile) *models.FigmaAnalysis {
	analysis := &models.FigmaAnalysis{
		FileName: file.Name,
		DesignTokens: models.DesignTokens{
			Colors:       make(map[string]string),
			Typography:   make(map[string]string),
			Spacing:      make(map[string]string),
			BorderRadius: make(map[string]string),
		},
	}
	for _, page := range file.Document.Children {
		if page.Type == "CANVAS" {
			analysis.Pages = append(analysis.Pages, page.Name)
		}
		walk(page, &analysis.DesignTokens)
	}
	return analysis
}

// walk collects tokens from named layers. Naming follows the common
// "category/name" convention used by design teams, e.g. "color/primary".
func walk(node figmaNode, tokens *models.DesignTokens) {
	category, name, ok := strings.Cut(strings.ToLower(node.Name), "/")
	if ok && name != "" {
		switch category {
		case "color", "colour":
			if hex := solidFill(node); hex != "" {
				setToken(tokens.Colors, name, hex)
			}
		case "font", "type", "typography":
			if node.Style != nil && node.Style.FontFamily != "" {
				setToken(tokens.Typography, name, node.Style.FontFamily)
			}
		case "spacing":
			if node.ItemSpacing > 0 {
				setToken(tokens.Spacing, name, fmt.Sprintf("%dpx", int(node.ItemSpacing)))
			}
		case "radius":
			if node.CornerRadius > 0 {
				setToken(tokens.BorderRadius, name, fmt.Sprintf("%dpx", int(node.CornerRadius)))
			}
		}
	}
	for _, child := range node.Children {
		walk(child, tokens)
	}
}

// setToken keeps the first value seen for a name; document order wins.
func setToken(m map[string]string, name, value string) {
	if _, exists := m[name]; !exists {
		m[name] = value
	}
}

func solidFill(node figmaNode) string {
	for _, fill := range node.Fills {
		if fill.Type == "SOLID" && fill.Color != nil {
			return fmt.Sprintf("#%02x%02x%02x",
				int(fill.Color.R*255+0.5),
				int(fill.Color.G*255+0.5),
				int(fill.Color.B*255+0.5))
		}
	}
	return ""
}
