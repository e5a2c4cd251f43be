package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

var (
	ErrUnexpectedStatus = errors.New("unexpected archive response status")
	ErrNoGameID         = errors.New("archive response carries no game id")
)

// Move - the archive's view of one move. Row is the board y, column the board x.
type Move struct {
	FromRow int    `json:"fromRow"`
	FromCol int    `json:"fromCol"`
	ToRow   int    `json:"toRow"`
	ToCol   int    `json:"toCol"`
	Capture bool   `json:"capture"`
	Extra   string `json:"extra,omitempty"`
}

// Client talks to the archive HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// CreateGame registers a game and returns its archive id, read from the
// Location header or, failing that, from the "id" field of the body.
func (that *Client) CreateGame(ctx context.Context, black, white string) (int64, error) {
	resp, err := that.post(ctx, "/api/games", map[string]string{"black": black, "white": white})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: create game: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if location := resp.Header.Get("Location"); location != "" {
		if id, parseErr := strconv.ParseInt(path.Base(location), 10, 64); parseErr == nil {
			return id, nil
		}
	}

	var body struct {
		ID int64 `json:"id"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil || body.ID == 0 {
		return 0, ErrNoGameID
	}

	return body.ID, nil
}

func (that *Client) RecordMove(ctx context.Context, gameID int64, move Move) error {
	resp, err := that.post(ctx, fmt.Sprintf("/api/games/%d/moves", gameID), move)
	if err != nil {
		return err
	}

	return expectOK(resp, "record move")
}

func (that *Client) FinishGame(ctx context.Context, gameID int64, result string) error {
	resp, err := that.post(ctx, fmt.Sprintf("/api/games/%d/finish", gameID), map[string]string{"result": result})
	if err != nil {
		return err
	}

	return expectOK(resp, "finish game")
}

func (that *Client) post(ctx context.Context, endpoint string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive request failed: %w", err)
	}

	return resp, nil
}

func expectOK(resp *http.Response, action string) error {
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: %d", ErrUnexpectedStatus, action, resp.StatusCode)
	}

	return nil
}
