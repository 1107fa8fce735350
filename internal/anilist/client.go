package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hiinaspace/animutools/internal/config"
	"github.com/hiinaspace/animutools/internal/logging"
	"github.com/hiinaspace/animutools/internal/services"
)

// Media is the subset of AniList metadata the tools care about.
type Media struct {
	ID            int      `json:"id"`
	TitleRomaji   string   `json:"titleRomaji"`
	TitleEnglish  string   `json:"titleEnglish"`
	CoverImageURL string   `json:"coverImageUrl"`
	Episodes      int      `json:"episodes"`
	Source        string   `json:"source"`
	Season        string   `json:"season"`
	SeasonYear    int      `json:"seasonYear"`
	Studios       []string `json:"studios"`
}

// Title prefers the romaji title, the form seasonal release names use.
func (m *Media) Title() string {
	if m.TitleRomaji != "" {
		return m.TitleRomaji
	}
	return m.TitleEnglish
}

// Client queries the AniList GraphQL endpoint.
type Client struct {
	apiURL     string
	batchSize  int
	batchDelay time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a Client from config.
func NewClient(cfg config.AniList, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 30
	}
	return &Client{
		apiURL:     cfg.APIURL,
		batchSize:  batchSize,
		batchDelay: time.Duration(cfg.RateLimitSeconds * float64(time.Second)),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "anilist"),
	}
}

const mediaFields = `{
  id
  title { romaji english }
  coverImage { extraLarge }
  episodes
  source
  season
  seasonYear
  studios { edges { isMain node { name } } }
}`

// FetchMedia looks up the given AniList IDs, batching requests and pausing
// between batches to stay under the API rate limit. IDs the API doesn't know
// are absent from the result rather than an error.
func (c *Client) FetchMedia(ctx context.Context, ids []int) (map[int]*Media, error) {
	result := make(map[int]*Media, len(ids))
	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		if start > 0 && c.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.batchDelay):
			}
		}

		batch, err := c.fetchBatch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for id, media := range batch {
			result[id] = media
		}
		c.logger.Debug("fetched metadata batch",
			logging.Int("requested", end-start),
			logging.Int("returned", len(batch)),
		)
	}
	return result, nil
}

func (c *Client) fetchBatch(ctx context.Context, ids []int) (map[int]*Media, error) {
	var query strings.Builder
	query.WriteString("query {\n")
	for _, id := range ids {
		fmt.Fprintf(&query, "m%d: Media(id: %d, type: ANIME) %s\n", id, id, mediaFields)
	}
	query.WriteString("}")

	body, err := json.Marshal(map[string]string{"query": query.String()})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "anilist", "encode query", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "anilist", "build request", c.apiURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "anilist", "query", c.apiURL, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "anilist", "read response", c.apiURL, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, services.Wrap(services.ErrTransient, "anilist", "query", "rate limited", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalTool, "anilist", "query",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return decodeBatch(payload, c.logger)
}

type mediaPayload struct {
	ID    int `json:"id"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
	} `json:"title"`
	CoverImage struct {
		ExtraLarge string `json:"extraLarge"`
	} `json:"coverImage"`
	Episodes   int    `json:"episodes"`
	Source     string `json:"source"`
	Season     string `json:"season"`
	SeasonYear int    `json:"seasonYear"`
	Studios    struct {
		Edges []struct {
			IsMain bool `json:"isMain"`
			Node   struct {
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"studios"`
}

func decodeBatch(payload []byte, logger *slog.Logger) (map[int]*Media, error) {
	var envelope struct {
		Data   map[string]json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "anilist", "decode response", "", err)
	}
	// Partial data with errors is normal: unknown IDs come back as per-alias
	// errors alongside the aliases that resolved.
	for _, gqlErr := range envelope.Errors {
		logger.Warn("graphql error", logging.String("message", gqlErr.Message))
	}
	if envelope.Data == nil && len(envelope.Errors) > 0 {
		return nil, services.Wrap(services.ErrExternalTool, "anilist", "query",
			envelope.Errors[0].Message, nil)
	}

	result := make(map[int]*Media, len(envelope.Data))
	for alias, raw := range envelope.Data {
		if string(raw) == "null" {
			continue
		}
		var decoded mediaPayload
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "anilist", "decode media", alias, err)
		}
		media := &Media{
			ID:            decoded.ID,
			TitleRomaji:   decoded.Title.Romaji,
			TitleEnglish:  decoded.Title.English,
			CoverImageURL: decoded.CoverImage.ExtraLarge,
			Episodes:      decoded.Episodes,
			Source:        decoded.Source,
			Season:        decoded.Season,
			SeasonYear:    decoded.SeasonYear,
		}
		for _, edge := range decoded.Studios.Edges {
			if edge.IsMain {
				media.Studios = append(media.Studios, edge.Node.Name)
			}
		}
		result[media.ID] = media
	}
	return result, nil
}

var mediaURLPattern = regexp.MustCompile(`anilist\.co/anime/(\d+)`)

// ParseMediaURL extracts the media ID from an anilist.co anime URL.
func ParseMediaURL(rawURL string) (int, error) {
	match := mediaURLPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return 0, services.Wrap(services.ErrValidation, "anilist", "parse url", rawURL, nil)
	}
	id, err := strconv.Atoi(match[1])
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "anilist", "parse url", rawURL, err)
	}
	return id, nil
}
