package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pantrypal/apperr"
	"pantrypal/metrics"
	"pantrypal/models"
)

const MessageUpstream = "Could not load recipes."

// Provider searches an external recipe catalogue by ingredients.
type Provider interface {
	Search(ctx context.Context, ingredients []string, page, pageSize int) ([]models.RecipeSummary, error)
}

// Spoonacular calls the findByIngredients endpoint.
type Spoonacular struct {
	baseURL string
	apiKey  string
	client  *http.Client
	metrics *metrics.Registry
}

func NewSpoonacular(baseURL, apiKey string, reg *metrics.Registry) *Spoonacular {
	return &Spoonacular{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		metrics: reg,
	}
}

type spoonacularIngredient struct {
	Name string `json:"name"`
}

type spoonacularRecipe struct {
	ID                json.Number             `json:"id"`
	Title             string                  `json:"title"`
	Image             string                  `json:"image"`
	UsedIngredients   []spoonacularIngredient `json:"usedIngredients"`
	MissedIngredients []spoonacularIngredient `json:"missedIngredients"`
}

func (s *Spoonacular) searchURL(ingredients []string, page, pageSize int) string {
	q := url.Values{}
	q.Set("ingredients", strings.Join(ingredients, ","))
	q.Set("number", strconv.Itoa(pageSize))
	q.Set("offset", strconv.Itoa(page*pageSize))
	q.Set("ranking", "2")
	q.Set("ignorePantry", "true")
	q.Set("apiKey", s.apiKey)
	return s.baseURL + "/recipes/findByIngredients?" + q.Encode()
}

func (s *Spoonacular) Search(ctx context.Context, ingredients []string, page, pageSize int) ([]models.RecipeSummary, error) {
	if s.apiKey == "" {
		s.metrics.ProviderCall("unconfigured")
		return nil, apperr.Upstream(MessageUpstream, errors.New("SPOONACULAR_API_KEY is not set"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL(ingredients, page, pageSize), nil)
	if err != nil {
		return nil, apperr.Internal("Error building recipe request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.ProviderCall("error")
		return nil, apperr.Upstream(MessageUpstream, fmt.Errorf("recipe provider request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		s.metrics.ProviderCall("error")
		return nil, apperr.Upstream(MessageUpstream, fmt.Errorf("read recipe provider response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.metrics.ProviderCall("error")
		return nil, apperr.Upstream(MessageUpstream, fmt.Errorf("recipe provider returned %s", resp.Status))
	}

	var raw []spoonacularRecipe
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '[' {
		s.metrics.ProviderCall("error")
		return nil, apperr.Upstream(MessageUpstream, errors.New("recipe provider response is not a list"))
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		s.metrics.ProviderCall("error")
		return nil, apperr.Upstream(MessageUpstream, fmt.Errorf("decode recipe provider response: %w", err))
	}
	s.metrics.ProviderCall("ok")

	out := make([]models.RecipeSummary, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.RecipeSummary{
			ID:                    models.RecipeID(r.ID.String()),
			Title:                 r.Title,
			Image:                 r.Image,
			UsedIngredientNames:   names(r.UsedIngredients),
			MissedIngredientNames: names(r.MissedIngredients),
		})
	}
	return out, nil
}

func names(items []spoonacularIngredient) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Name)
	}
	return out
}
