package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// Client is a Go SDK for the competition-engine API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new competition-engine client
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is returned for non-2xx responses
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// do performs a request and decodes the envelope's data into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode response (%d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "unknown", Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode data: %w", err)
		}
	}

	return nil
}

// CreateCompetition creates a new competition
func (c *Client) CreateCompetition(ctx context.Context, req models.CreateCompetitionRequest) (*models.Competition, error) {
	var comp models.Competition
	if err := c.do(ctx, http.MethodPost, "/api/v1/competitions", req, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// GetCompetition retrieves competition metadata
func (c *Client) GetCompetition(ctx context.Context, id string) (*models.Competition, error) {
	var comp models.Competition
	if err := c.do(ctx, http.MethodGet, "/api/v1/competitions/"+id, nil, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// CompetitionList is the response of ListCompetitions
type CompetitionList struct {
	Competitions []*models.Competition `json:"competitions"`
	Total        int                   `json:"total"`
}

// ListOptions narrows competition listings
type ListOptions struct {
	Status      string
	OrganizerID string
	Limit       int
	Offset      int
}

// ListCompetitions lists competitions
func (c *Client) ListCompetitions(ctx context.Context, opts ListOptions) (*CompetitionList, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.OrganizerID != "" {
		q.Set("organizer_id", opts.OrganizerID)
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", opts.Offset))
	}

	path := "/api/v1/competitions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list CompetitionList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateCompetition updates competition metadata or status
func (c *Client) UpdateCompetition(ctx context.Context, id string, req models.UpdateCompetitionRequest) (*models.Competition, error) {
	var comp models.Competition
	if err := c.do(ctx, http.MethodPut, "/api/v1/competitions/"+id, req, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// DeleteCompetition deletes a competition and its participants
func (c *Client) DeleteCompetition(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/competitions/"+id, nil, nil)
}

// Register enters a dog into a class of a competition
func (c *Client) Register(ctx context.Context, competitionID string, req models.RegisterRequest) (*models.Participant, error) {
	var p models.Participant
	if err := c.do(ctx, http.MethodPost, "/api/v1/competitions/"+competitionID+"/register", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Details retrieves the competition with all hydrated participants
// (organizer/admin only)
func (c *Client) Details(ctx context.Context, competitionID string) (*models.CompetitionDetails, error) {
	var d models.CompetitionDetails
	if err := c.do(ctx, http.MethodGet, "/api/v1/competitions/"+competitionID+"/details", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Results retrieves the public results view (confirmed participants only)
func (c *Client) Results(ctx context.Context, competitionID string) (*models.CompetitionDetails, error) {
	var d models.CompetitionDetails
	if err := c.do(ctx, http.MethodGet, "/api/v1/competitions/"+competitionID+"/results", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateParticipant applies one review mutation
func (c *Client) UpdateParticipant(ctx context.Context, competitionID string, upd models.ParticipantUpdate) (*models.Participant, error) {
	var p models.Participant
	if err := c.do(ctx, http.MethodPut, "/api/v1/competitions/"+competitionID+"/participants", upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveOutcomes is the response of SaveParticipants
type SaveOutcomes struct {
	Outcomes []models.SaveOutcome `json:"outcomes"`
	Total    int                  `json:"total"`
}

// SaveParticipants persists a batch of review mutations; partial success
// is reported per item
func (c *Client) SaveParticipants(ctx context.Context, competitionID string, updates []models.ParticipantUpdate) (*SaveOutcomes, error) {
	body := map[string]interface{}{"updates": updates}

	var out SaveOutcomes
	if err := c.do(ctx, http.MethodPost, "/api/v1/competitions/"+competitionID+"/participants/batch", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlacementResult is the response of ComputePlacements
type PlacementResult struct {
	Participants []*models.Participant `json:"participants"`
	Total        int                   `json:"total"`
}

// ComputePlacements recomputes placement for every class group
func (c *Client) ComputePlacements(ctx context.Context, competitionID string) (*PlacementResult, error) {
	var out PlacementResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/competitions/"+competitionID+"/placements", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rating retrieves the cross-competition rating for a discipline class
func (c *Client) Rating(ctx context.Context, discipline string) ([]models.RatingEntry, error) {
	var entries []models.RatingEntry
	path := "/api/v1/rating?discipline=" + url.QueryEscape(discipline)
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Classes retrieves the class catalog
func (c *Client) Classes(ctx context.Context) ([]*models.Class, error) {
	var out struct {
		Classes []*models.Class `json:"classes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/classes", nil, &out); err != nil {
		return nil, err
	}
	return out.Classes, nil
}

// PutProfile stores an athlete profile record (admin only)
func (c *Client) PutProfile(ctx context.Context, userID string, p models.Profile) error {
	return c.do(ctx, http.MethodPut, "/api/v1/profiles/"+userID, p, nil)
}

// PutDogs stores the dog list of an athlete (admin only)
func (c *Client) PutDogs(ctx context.Context, userID string, dogs []models.Dog) error {
	return c.do(ctx, http.MethodPut, "/api/v1/profiles/"+userID+"/dogs", dogs, nil)
}
