// Package wiki is a thin client for the MediaWiki query API, covering just
// enough of prop=revisions to walk an article's history and fetch revision
// content. Retry and rate-limit policy belong to the caller.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the English Wikipedia API endpoint.
const DefaultBaseURL = "https://en.wikipedia.org/w/api.php"

const timeFormat = "2006-01-02T15:04:05Z"

// Responses are capped to keep a hostile or misconfigured endpoint from
// exhausting memory. Article wikitext tops out around 2 MB.
const maxResponseBytes = 16 << 20

// ErrPageMissing is returned when the requested article does not exist.
var ErrPageMissing = errors.New("page missing")

// RevisionMeta identifies one revision without its content.
type RevisionMeta struct {
	ID        int64
	Timestamp time.Time
}

// Revision is one historical version of an article.
type Revision struct {
	ID        int64
	Timestamp time.Time
	Content   string
}

// Client talks to a MediaWiki api.php endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a Client for the given api.php base URL. The user agent
// is sent on every request; Wikimedia asks for a descriptive one.
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type apiResponse struct {
	Error    *apiError `json:"error"`
	Continue struct {
		RvContinue string `json:"rvcontinue"`
	} `json:"continue"`
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Revisions []struct {
				RevID     int64     `json:"revid"`
				Timestamp time.Time `json:"timestamp"`
				Slots     struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// Revisions lists an article's revisions between from and to (inclusive),
// oldest first, following API continuation until the range is exhausted.
// Zero time bounds leave that end of the range open.
func (c *Client) Revisions(ctx context.Context, title string, from, to time.Time) ([]RevisionMeta, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"revisions"},
		"titles":        {title},
		"rvprop":        {"ids|timestamp"},
		"rvlimit":       {"max"},
		"rvdir":         {"newer"},
	}
	if !from.IsZero() {
		params.Set("rvstart", from.UTC().Format(timeFormat))
	}
	if !to.IsZero() {
		params.Set("rvend", to.UTC().Format(timeFormat))
	}

	var metas []RevisionMeta
	for {
		resp, err := c.get(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(resp.Query.Pages) == 0 {
			return nil, fmt.Errorf("list revisions of %q: empty query response", title)
		}
		page := resp.Query.Pages[0]
		if page.Missing {
			return nil, fmt.Errorf("%q: %w", title, ErrPageMissing)
		}
		for _, rev := range page.Revisions {
			metas = append(metas, RevisionMeta{ID: rev.RevID, Timestamp: rev.Timestamp})
		}

		if resp.Continue.RvContinue == "" {
			break
		}
		params.Set("rvcontinue", resp.Continue.RvContinue)
	}
	return metas, nil
}

// Content fetches the raw content of a single revision by id.
func (c *Client) Content(ctx context.Context, revID int64) (string, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"revisions"},
		"revids":        {fmt.Sprintf("%d", revID)},
		"rvprop":        {"ids|content"},
		"rvslots":       {"main"},
	}

	resp, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}
	for _, page := range resp.Query.Pages {
		for _, rev := range page.Revisions {
			if rev.RevID == revID {
				return rev.Slots.Main.Content, nil
			}
		}
	}
	return "", fmt.Errorf("revision %d: not found in response", revID)
}

func (c *Client) get(ctx context.Context, params url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query: unexpected status %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("query: API error %s: %s", out.Error.Code, out.Error.Info)
	}
	return &out, nil
}
