package feed

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finmodel/internal/config"
	"github.com/Dan9191/finmodel/internal/models"
)

// maxFeedBytes caps how much of a feed response is read
const maxFeedBytes = 4 << 20

// Month is one period read from a provider feed. HasCash is false when the
// feed leaves the closing balance for the importer to derive.
type Month struct {
	Period   string
	Revenue  float64
	Expenses float64
	Cash     float64
	HasCash  bool
}

// Client pulls monthly P&L feeds from accounting providers
type Client struct {
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new feed client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: cfg.FeedTimeout,
		},
		log: log,
	}
}

// Fetch downloads and parses the feed at url
func (c *Client) Fetch(ctx context.Context, url string) ([]Month, error) {
	body, err := c.sendRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	months, err := parseFeed(body)
	if err != nil {
		return nil, err
	}
	c.log.Infof("Retrieved %d months from %s", len(months), url)
	return months, nil
}

func (c *Client) sendRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("Feed XML response: %s", string(body))

	return body, nil
}

// parseFeed reads every <month> element, wherever it is nested
func parseFeed(raw []byte) ([]Month, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	elements := doc.FindElements("//month")
	if len(elements) == 0 {
		return nil, fmt.Errorf("no month data found in XML")
	}

	months := make([]Month, 0, len(elements))
	for i, el := range elements {
		m, err := parseMonth(el)
		if err != nil {
			return nil, fmt.Errorf("month %d: %w", i+1, err)
		}
		months = append(months, m)
	}
	return months, nil
}

func parseMonth(el *etree.Element) (Month, error) {
	var m Month

	period := el.FindElement("./period")
	if period == nil {
		return m, fmt.Errorf("period element not found")
	}
	m.Period = strings.TrimSpace(period.Text())
	if !models.ValidMonth(m.Period) {
		return m, fmt.Errorf("invalid period %q", m.Period)
	}

	var err error
	if m.Revenue, _, err = number(el, "revenue"); err != nil {
		return m, err
	}
	if m.Expenses, _, err = number(el, "expenses"); err != nil {
		return m, err
	}
	if m.Cash, m.HasCash, err = number(el, "cash"); err != nil {
		return m, err
	}
	return m, nil
}

// number reads an optional numeric child; absent children read as zero
func number(el *etree.Element, tag string) (float64, bool, error) {
	child := el.FindElement("./" + tag)
	if child == nil {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(child.Text()), 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse %s: %w", tag, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("failed to parse %s: %q is not a finite number", tag, child.Text())
	}
	return v, true, nil
}
