package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"funnel-tracker/internal/client"
	"funnel-tracker/internal/models"
)

// RestStore keeps prospects in a PostgREST-style data service.
type RestStore struct {
	http    *client.HTTPClient
	baseURL string
	apiKey  string
}

func NewRestStore(httpClient *client.HTTPClient, baseURL, apiKey string) *RestStore {
	return &RestStore{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (s *RestStore) Create(ctx context.Context, p models.Prospect) (models.Prospect, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	row, err := toRow(p)
	if err != nil {
		return models.Prospect{}, fmt.Errorf("create prospect: %w", err)
	}
	delete(row, "created_at")
	delete(row, "updated_at")

	var out []models.Prospect
	err = s.http.DoJSON(ctx, client.Request{
		Method:  http.MethodPost,
		URL:     s.endpoint(nil),
		Headers: s.headers(true),
		Body:    row,
		Target:  &out,
	})
	if err != nil {
		return models.Prospect{}, fmt.Errorf("create prospect: %w", err)
	}
	if len(out) == 0 {
		return models.Prospect{}, fmt.Errorf("create prospect: empty response")
	}
	return out[0], nil
}

func (s *RestStore) Get(ctx context.Context, id string) (models.Prospect, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)

	var out []models.Prospect
	err := s.http.DoJSON(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     s.endpoint(q),
		Headers: s.headers(false),
		Target:  &out,
	})
	if err != nil {
		if client.IsStatus(err, http.StatusBadRequest) {
			return models.Prospect{}, ErrNotFound
		}
		return models.Prospect{}, fmt.Errorf("get prospect: %w", err)
	}
	if len(out) == 0 {
		return models.Prospect{}, ErrNotFound
	}
	return out[0], nil
}

func (s *RestStore) Update(ctx context.Context, p models.Prospect) (models.Prospect, error) {
	row, err := toRow(p)
	if err != nil {
		return models.Prospect{}, fmt.Errorf("update prospect: %w", err)
	}
	for _, key := range []string{"id", "user_id", "created_at", "updated_at"} {
		delete(row, key)
	}
	row["updated_at"] = "now"

	q := url.Values{}
	q.Set("id", "eq."+p.ID)

	var out []models.Prospect
	err = s.http.DoJSON(ctx, client.Request{
		Method:  http.MethodPatch,
		URL:     s.endpoint(q),
		Headers: s.headers(true),
		Body:    row,
		Target:  &out,
	})
	if err != nil {
		if client.IsStatus(err, http.StatusBadRequest) {
			return models.Prospect{}, ErrNotFound
		}
		return models.Prospect{}, fmt.Errorf("update prospect: %w", err)
	}
	if len(out) == 0 {
		return models.Prospect{}, ErrNotFound
	}
	return out[0], nil
}

func (s *RestStore) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	var out []models.Prospect
	err := s.http.DoJSON(ctx, client.Request{
		Method:  http.MethodDelete,
		URL:     s.endpoint(q),
		Headers: s.headers(true),
		Target:  &out,
	})
	if err != nil {
		if client.IsStatus(err, http.StatusBadRequest) {
			return ErrNotFound
		}
		return fmt.Errorf("delete prospect: %w", err)
	}
	if len(out) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RestStore) Search(ctx context.Context, f SearchFilter) ([]models.Prospect, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc,id.asc")
	if f.UserID != "" {
		q.Set("user_id", "eq."+f.UserID)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		pattern := quoteFilter("*" + query + "*")
		q.Set("or", fmt.Sprintf("(name.ilike.%s,business_name.ilike.%s)", pattern, pattern))
	}
	if status := f.status(); status != "" {
		q.Set("status", "eq."+status)
	}

	out := make([]models.Prospect, 0)
	err := s.http.DoJSON(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     s.endpoint(q),
		Headers: s.headers(false),
		Target:  &out,
	})
	if err != nil {
		return nil, fmt.Errorf("search prospects: %w", err)
	}
	return out, nil
}

func (s *RestStore) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	return s.http.DoJSON(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     s.endpoint(q),
		Headers: s.headers(false),
	})
}

func (s *RestStore) endpoint(q url.Values) string {
	u := s.baseURL + "/prospects"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (s *RestStore) headers(representation bool) map[string]string {
	h := map[string]string{}
	if s.apiKey != "" {
		h["apikey"] = s.apiKey
		h["Authorization"] = "Bearer " + s.apiKey
	}
	if representation {
		h["Prefer"] = "return=representation"
	}
	return h
}

// toRow turns p into a column map. Unset optional columns are sent as null
// so a write clears them.
func toRow(p models.Prospect) (map[string]interface{}, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	row := map[string]interface{}{}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	for _, c := range prospectColumns(&p) {
		if _, ok := row[c.name]; !ok {
			row[c.name] = nil
		}
	}
	return row, nil
}

var filterQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quoteFilter wraps a filter value in double quotes so commas and
// parentheses in user input do not break the or=() expression.
func quoteFilter(v string) string {
	return `"` + filterQuoter.Replace(v) + `"`
}
