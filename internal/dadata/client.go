// Package dadata implements the corporate registry lookup over the
// DaData suggestions API.
package dadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// ErrNotFound is returned when no registry record matches the tax ID.
var ErrNotFound = errors.New("company not found")

// Client queries the DaData party endpoints.
type Client struct {
	BaseURL string
	APIKey  string
	Secret  string
	HTTP    *http.Client
}

// New creates a DaData client. The secret key is optional; it is only
// attached to requests when present.
func New(baseURL, apiKey, secret string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Secret:  secret,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Party is one legal entity from a suggest response, reduced to the
// fields the affiliate search needs.
type Party struct {
	Value       string // display name from the suggestion
	INN         string
	NameShort   string
	Status      string
	ManagerName string
	ManagerPost string
}

// partyResponse mirrors the DaData party payload.
type partyResponse struct {
	Suggestions []struct {
		Value string    `json:"value"`
		Data  partyData `json:"data"`
	} `json:"suggestions"`
}

type partyData struct {
	INN  string `json:"inn"`
	OGRN string `json:"ogrn"`
	KPP  string `json:"kpp"`
	Name struct {
		FullWithOPF  string `json:"full_with_opf"`
		ShortWithOPF string `json:"short_with_opf"`
	} `json:"name"`
	State struct {
		Status           string `json:"status"`
		RegistrationDate int64  `json:"registration_date"`
		ActualityDate    int64  `json:"actuality_date"`
	} `json:"state"`
	Invalid bool `json:"invalid"`
	Address *struct {
		Value string `json:"value"`
		Data  *struct {
			QC interface{} `json:"qc"` // string or number depending on the plan
		} `json:"data"`
	} `json:"address"`
	Capital *struct {
		Value float64 `json:"value"`
	} `json:"capital"`
	Management *struct {
		Name string `json:"name"`
		Post string `json:"post"`
	} `json:"management"`
	Managers []struct {
		FIO *struct {
			Surname string `json:"surname"`
		} `json:"fio"`
		Post string `json:"post"`
		Date int64  `json:"date"`
	} `json:"managers"`
	OKVED   string `json:"okved"`
	Finance *struct {
		Year    int      `json:"year"`
		Revenue *float64 `json:"revenue"`
		Income  *float64 `json:"income"`
		Expense *float64 `json:"expense"`
		Profit  *float64 `json:"profit"`
	} `json:"finance"`
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) (*partyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.APIKey)
	if c.Secret != "" {
		req.Header.Set("X-Secret", c.Secret)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dadata fetch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dadata read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dadata: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var parsed partyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("dadata decode: %w", err)
	}
	return &parsed, nil
}

// FindByINN resolves the primary registry record of a legal entity.
// Returns ErrNotFound when the registry has no record for the tax ID.
func (c *Client) FindByINN(ctx context.Context, inn string) (*model.Company, error) {
	parsed, err := c.post(ctx, "/findById/party", map[string]string{"query": inn})
	if err != nil {
		return nil, err
	}
	if len(parsed.Suggestions) == 0 {
		return nil, ErrNotFound
	}
	return toCompany(&parsed.Suggestions[0].Data), nil
}

// SuggestParties searches legal entities by a free-form query
// (used with a person's name to find affiliated companies).
func (c *Client) SuggestParties(ctx context.Context, query string, count int) ([]Party, error) {
	parsed, err := c.post(ctx, "/suggest/party", map[string]interface{}{
		"query": query,
		"count": count,
		"type":  "LEGAL",
	})
	if err != nil {
		return nil, err
	}

	parties := make([]Party, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		p := Party{
			Value:     s.Value,
			INN:       s.Data.INN,
			NameShort: s.Data.Name.ShortWithOPF,
			Status:    s.Data.State.Status,
		}
		if s.Data.Management != nil {
			p.ManagerName = s.Data.Management.Name
			p.ManagerPost = s.Data.Management.Post
		}
		parties = append(parties, p)
	}
	return parties, nil
}

func toCompany(d *partyData) *model.Company {
	c := &model.Company{
		INN:            d.INN,
		OGRN:           d.OGRN,
		KPP:            d.KPP,
		NameFull:       d.Name.FullWithOPF,
		NameShort:      d.Name.ShortWithOPF,
		Status:         d.State.Status,
		RegistrationMs: d.State.RegistrationDate,
		ActualityMs:    d.State.ActualityDate,
		Invalid:        d.Invalid,
		OKVED:          d.OKVED,
	}
	if d.Address != nil {
		c.Address = d.Address.Value
		if d.Address.Data != nil {
			c.AddressQC = toQC(d.Address.Data.QC)
		}
	}
	if d.Capital != nil {
		c.Capital = d.Capital.Value
	}
	if d.Management != nil {
		c.ManagerName = d.Management.Name
		c.ManagerPost = d.Management.Post
	}
	for _, m := range d.Managers {
		entry := model.ManagerEntry{Post: m.Post, DateMs: m.Date}
		if m.FIO != nil {
			entry.Surname = m.FIO.Surname
		}
		c.Managers = append(c.Managers, entry)
	}
	if d.Finance != nil {
		c.Finance = &model.Finance{
			Year:    d.Finance.Year,
			Revenue: d.Finance.Revenue,
			Income:  d.Finance.Income,
			Expense: d.Finance.Expense,
			Profit:  d.Finance.Profit,
		}
	}
	return c
}

// toQC normalizes the address verification code, which DaData returns
// as either a string or a number.
func toQC(v interface{}) *int {
	switch n := v.(type) {
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return &parsed
		}
	case float64:
		qc := int(n)
		return &qc
	}
	return nil
}
