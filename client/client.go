// Package client is a typed HTTP client for the JRA JSON API.
package client

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

	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/validate"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("username already exists")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// User is the identity returned by login and registration.
type User struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	LicenseNumber string `json:"license_number,omitempty"`
	Token         string `json:"token,omitempty"`
}

// Favorite kinds and the body key each one uses for the entity id.
const (
	KindHorses      = "horses"
	KindRaces       = "races"
	KindRacecourses = "racecourses"
)

var kindColumns = map[string]string{
	KindHorses:      "horse_id",
	KindRaces:       "race_id",
	KindRacecourses: "racecourse_id",
}

// DefaultTimeout bounds each request made with the default http.Client.
const DefaultTimeout = 30 * time.Second

// Client talks to one API base URL, e.g. http://localhost:9000/api.
type Client struct {
	base  string
	http  *http.Client
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for base.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &payload)

	e := &APIError{Status: resp.StatusCode, Message: payload.Message}
	if e.Message == "" {
		e.Message = payload.Error
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		e.kind = ErrInvalidCredentials
	case resp.StatusCode == http.StatusForbidden:
		e.kind = ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		e.kind = ErrNotFound
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Message), "already exists"):
		e.kind = ErrConflict
	}
	return e
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Horses lists horses matching q.
func (c *Client) Horses(ctx context.Context, q url.Values) ([]models.Horse, error) {
	var out []models.Horse
	return out, c.do(ctx, http.MethodGet, withQuery("/horses", q), nil, &out)
}

// Horse fetches one horse.
func (c *Client) Horse(ctx context.Context, horseID int64) (*models.Horse, error) {
	out := &models.Horse{}
	if err := c.do(ctx, http.MethodGet, "/horses/"+id(horseID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Races lists races matching q.
func (c *Client) Races(ctx context.Context, q url.Values) ([]models.Race, error) {
	var out []models.Race
	return out, c.do(ctx, http.MethodGet, withQuery("/races", q), nil, &out)
}

// Racecourses lists racecourses matching q.
func (c *Client) Racecourses(ctx context.Context, q url.Values) ([]models.Racecourse, error) {
	var out []models.Racecourse
	return out, c.do(ctx, http.MethodGet, withQuery("/racecourses", q), nil, &out)
}

// AvailableHorses returns the entry form's horse choices.
func (c *Client) AvailableHorses(ctx context.Context) ([]models.Option, error) {
	var out []models.Option
	return out, c.do(ctx, http.MethodGet, "/available-horses", nil, &out)
}

// AvailableRaces returns the entry form's race choices.
func (c *Client) AvailableRaces(ctx context.Context) ([]models.Option, error) {
	var out []models.Option
	return out, c.do(ctx, http.MethodGet, "/available-races", nil, &out)
}

type authResponse struct {
	Success bool   `json:"success"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

// Login returns the user for matching credentials, with its token set.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var out authResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	out.User.Token = out.Token
	return &out.User, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, r validate.Registration) (*User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", r, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Entry is a race entry submission.
type Entry struct {
	JockeyName     string  `json:"jockeyName"`
	LicenseNumber  string  `json:"licenseNumber"`
	HorseID        int64   `json:"horseId"`
	RaceID         int64   `json:"raceId"`
	Saddlecloth    int     `json:"saddlecloth"`
	Barrier        int     `json:"barrier"`
	DeclaredWeight float64 `json:"declaredWeight"`
	HorseWeight    *int    `json:"horseWeight,omitempty"`
}

// SubmitEntry posts e once and returns the new entry id.
func (c *Client) SubmitEntry(ctx context.Context, e Entry) (int64, error) {
	var out struct {
		EntryID int64 `json:"entryId"`
	}
	if err := c.do(ctx, http.MethodPost, "/race-entries", e, &out); err != nil {
		return 0, err
	}
	return out.EntryID, nil
}

func favoriteBody(kind string, userID, entityID int64) (map[string]int64, error) {
	col, ok := kindColumns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown favorite kind %q", kind)
	}
	return map[string]int64{"userId": userID, col: entityID}, nil
}

// AddFavorite favorites an entity. Adding twice is harmless.
func (c *Client) AddFavorite(ctx context.Context, kind string, userID, entityID int64) error {
	body, err := favoriteBody(kind, userID, entityID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/user/favorites/"+kind, body, nil)
}

// RemoveFavorite unfavorites an entity.
func (c *Client) RemoveFavorite(ctx context.Context, kind string, userID, entityID int64) error {
	if _, ok := kindColumns[kind]; !ok {
		return fmt.Errorf("unknown favorite kind %q", kind)
	}
	return c.do(ctx, http.MethodDelete, "/user/favorites/"+kind+"/"+id(userID)+"/"+id(entityID), nil, nil)
}

// FavoriteIDs returns the ids a user has favorited, newest first.
func (c *Client) FavoriteIDs(ctx context.Context, kind string, userID int64) ([]int64, error) {
	if _, ok := kindColumns[kind]; !ok {
		return nil, fmt.Errorf("unknown favorite kind %q", kind)
	}
	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/favorites/"+kind+"/"+id(userID), nil, &rows); err != nil {
		return nil, err
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// FavoriteHorses returns the horses a user has favorited, newest first.
func (c *Client) FavoriteHorses(ctx context.Context, userID int64) ([]models.Horse, error) {
	return favoriteList[models.Horse](ctx, c, KindHorses, userID)
}

// FavoriteRaces returns the races a user has favorited, newest first, with
// racecourse names joined.
func (c *Client) FavoriteRaces(ctx context.Context, userID int64) ([]models.Race, error) {
	return favoriteList[models.Race](ctx, c, KindRaces, userID)
}

// FavoriteRacecourses returns the racecourses a user has favorited, newest first.
func (c *Client) FavoriteRacecourses(ctx context.Context, userID int64) ([]models.Racecourse, error) {
	return favoriteList[models.Racecourse](ctx, c, KindRacecourses, userID)
}

func favoriteList[T any](ctx context.Context, c *Client, kind string, userID int64) ([]T, error) {
	var out []T
	return out, c.do(ctx, http.MethodGet, "/user/favorites/"+kind+"/"+id(userID), nil, &out)
}

// Profile returns a user's profile.
func (c *Client) Profile(ctx context.Context, userID int64) (*models.Jockey, error) {
	out := &models.Jockey{}
	if err := c.do(ctx, http.MethodGet, "/user/profile/"+id(userID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// JockeyEntries is a jockey with their submitted entries.
type JockeyEntries struct {
	Jockey struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		LicenseNumber string `json:"license_number"`
	} `json:"jockey"`
	Entries []models.RaceEntry `json:"entries"`
}

// Entries returns a user's race entries, newest first.
func (c *Client) Entries(ctx context.Context, userID int64) (*JockeyEntries, error) {
	out := &JockeyEntries{}
	if err := c.do(ctx, http.MethodGet, "/user/entries/"+id(userID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// JockeyStat is one jockey in the directory.
type JockeyStat struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Username      string             `json:"username"`
	LicenseNumber string             `json:"license_number"`
	TotalEntries  int                `json:"total_entries"`
	RaceEntries   []models.RaceEntry `json:"race_entries"`
}

// Stats is the jockey directory.
type Stats struct {
	Jockeys []JockeyStat `json:"jockeys"`
	Stats   struct {
		TotalJockeys int `json:"totalJockeys"`
		TotalEntries int `json:"totalEntries"`
	} `json:"stats"`
}

// JockeyStats returns the jockey directory.
func (c *Client) JockeyStats(ctx context.Context) (*Stats, error) {
	out := &Stats{}
	if err := c.do(ctx, http.MethodGet, "/jockeys/stats", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
