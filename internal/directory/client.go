// Package directory looks up subject and alternative documents in the module
// that owns them so evaluation results can carry human-readable labels.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Profile maps one module type onto the owning module's documents. Paths
// contain an {id} placeholder.
type Profile struct {
	ModuleType      string `yaml:"module_type" json:"module_type"`
	ItemNameField   string `yaml:"item_name_field" json:"item_name_field"`
	ItemDescField   string `yaml:"item_desc_field" json:"item_desc_field"`
	SubjectPath     string `yaml:"subject_path" json:"subject_path"`
	AlternativePath string `yaml:"alternative_path,omitempty" json:"alternative_path,omitempty"`
}

type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Client interface {
	GetSubject(ctx context.Context, p Profile, subjectID string) (*Item, error)
	GetAlternative(ctx context.Context, p Profile, alternativeID string) (*Item, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("directory %s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *HTTPClient) GetSubject(ctx context.Context, p Profile, subjectID string) (*Item, error) {
	return c.getItem(ctx, p, p.SubjectPath, subjectID)
}

// GetAlternative returns nil, nil when the profile has no alternative path.
func (c *HTTPClient) GetAlternative(ctx context.Context, p Profile, alternativeID string) (*Item, error) {
	if p.AlternativePath == "" {
		return nil, nil
	}
	return c.getItem(ctx, p, p.AlternativePath, alternativeID)
}

func (c *HTTPClient) getItem(ctx context.Context, p Profile, pathTmpl, id string) (*Item, error) {
	if pathTmpl == "" {
		return nil, fmt.Errorf("no path configured for module %q", p.ModuleType)
	}
	data, err := c.doReq(ctx, http.MethodGet, strings.ReplaceAll(pathTmpl, "{id}", url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s item %s: %w", p.ModuleType, id, err)
	}
	return &Item{
		ID:          id,
		Name:        field(doc, p.ItemNameField),
		Description: field(doc, p.ItemDescField),
	}, nil
}

// field reads a dotted path such as "meta.title" from a decoded document.
func field(doc map[string]interface{}, path string) string {
	if path == "" {
		return ""
	}
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur = m[part]
	}
	switch v := cur.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
