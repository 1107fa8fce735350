package nyaa

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hiinaspace/animutools/internal/config"
	"github.com/hiinaspace/animutools/internal/episode"
	"github.com/hiinaspace/animutools/internal/logging"
	"github.com/hiinaspace/animutools/internal/services"
	"github.com/hiinaspace/animutools/internal/textutil"
)

const userAgent = "animutools/1.0"

// Release is one torrent entry from the RSS feed.
type Release struct {
	Title      string
	TorrentURL string
	ViewURL    string
	Seeders    int
	Episode    int
	HasEpisode bool
	Resolution string
}

// Show is one anime to find a premiere for. Titles holds the alternate names
// a release could be published under, primary title first.
type Show struct {
	Titles []string
}

func (s Show) primary() string {
	if len(s.Titles) == 0 {
		return ""
	}
	return s.Titles[0]
}

// score is the best similarity between a release name and any of the show's
// titles. Seasonal groups publish under romaji or english interchangeably.
func (s Show) score(releaseTitle string) int {
	best := 0
	for _, title := range s.Titles {
		if score := textutil.Similarity(releaseTitle, title); score > best {
			best = score
		}
	}
	return best
}

// Premiere is the search outcome for one show. TorrentURL is empty when no
// acceptable episode-1 release was found.
type Premiere struct {
	Show       string
	Release    string
	Resolution string
	TorrentURL string
}

// Matched reports whether a release was found for the show.
func (p Premiere) Matched() bool { return p.TorrentURL != "" }

func (p *Premiere) fill(release Release) {
	p.Release = release.Title
	p.Resolution = release.Resolution
	p.TorrentURL = release.TorrentURL
}

// Client queries nyaa's RSS search.
type Client struct {
	rssBaseURL  string
	broadQuery  string
	threshold   int
	queryDelay  time.Duration
	resolutions []string
	parser      *gofeed.Parser
	logger      *slog.Logger
}

// NewClient constructs a Client from config.
func NewClient(cfg config.Nyaa, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}

	resolutions := cfg.ResolutionPreference
	if len(resolutions) == 0 {
		resolutions = []string{"480p", "720p", "1080p"}
	}
	return &Client{
		rssBaseURL:  cfg.RSSBaseURL,
		broadQuery:  cfg.BroadQuery,
		threshold:   cfg.SimilarityThreshold,
		queryDelay:  time.Duration(cfg.QueryDelaySeconds) * time.Second,
		resolutions: resolutions,
		parser:      parser,
		logger:      logging.NewComponentLogger(logger, "nyaa"),
	}
}

// Search runs one RSS query and parses the resulting releases.
func (c *Client) Search(ctx context.Context, query string) ([]Release, error) {
	feedURL := c.rssBaseURL + url.QueryEscape(query)
	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "nyaa", "search", query, err)
	}

	releases := make([]Release, 0, len(feed.Items))
	for _, item := range feed.Items {
		release := Release{
			Title:      strings.TrimSpace(item.Title),
			TorrentURL: item.Link,
			ViewURL:    item.GUID,
			Seeders:    extensionInt(item, "seeders"),
		}
		release.Episode, release.HasEpisode = episode.GuessNumber(release.Title)
		release.Resolution = episode.GuessResolution(release.Title)
		releases = append(releases, release)
	}
	c.logger.Debug("search results",
		logging.String("query", query),
		logging.Int("count", len(releases)),
	)
	return releases, nil
}

// FindPremieres locates an episode-1 release for each show. One broad query
// over the current season is matched against every show first; shows it
// misses each get a targeted query, with a politeness delay in between.
// Results follow the input order. A show with no acceptable release gets an
// unmatched Premiere rather than an error, so one obscure title can't sink
// the whole season.
func (c *Client) FindPremieres(ctx context.Context, shows []Show) ([]Premiere, error) {
	results := make([]Premiere, len(shows))
	for i, show := range shows {
		results[i].Show = show.primary()
	}

	var broad []Release
	if c.broadQuery != "" {
		releases, err := c.Search(ctx, c.broadQuery)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			c.logger.Warn("broad query failed, every show gets a targeted search",
				logging.Error(err),
			)
		} else {
			broad = premieres(releases)
		}
	}

	var unmatched []int
	for i, show := range shows {
		if release, ok := bestMatch(show, broad, c.threshold); ok {
			results[i].fill(release)
		} else {
			unmatched = append(unmatched, i)
		}
	}
	c.logger.Info("broad search done",
		logging.Int("matched", len(shows)-len(unmatched)),
		logging.Int("remaining", len(unmatched)),
	)

	for n, i := range unmatched {
		if n > 0 {
			if err := c.pause(ctx); err != nil {
				return nil, err
			}
		}
		release, ok, err := c.findTargeted(ctx, shows[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			c.logger.Warn("no release found", logging.String("title", results[i].Show))
			continue
		}
		results[i].fill(release)
	}
	return results, nil
}

// findTargeted searches one show by name and picks its best premiere by
// resolution preference. When none of the preferred resolutions appear, the
// first acceptable release wins anyway.
func (c *Client) findTargeted(ctx context.Context, show Show) (Release, bool, error) {
	releases, err := c.Search(ctx, show.primary())
	if err != nil {
		if ctx.Err() != nil {
			return Release{}, false, err
		}
		c.logger.Warn("targeted query failed",
			logging.String("title", show.primary()),
			logging.Error(err),
		)
		return Release{}, false, nil
	}

	var valid []Release
	for _, release := range premieres(releases) {
		if show.score(release.Title) >= c.threshold {
			valid = append(valid, release)
		}
	}
	if len(valid) == 0 {
		return Release{}, false, nil
	}

	for _, resolution := range c.resolutions {
		for _, release := range valid {
			if release.Resolution == resolution {
				return release, true, nil
			}
		}
	}
	return valid[0], true, nil
}

// premieres filters releases down to first episodes.
func premieres(releases []Release) []Release {
	var firsts []Release
	for _, release := range releases {
		if release.HasEpisode && release.Episode == 1 {
			firsts = append(firsts, release)
		}
	}
	return firsts
}

// bestMatch picks the highest-scoring candidate at or above the threshold.
func bestMatch(show Show, candidates []Release, threshold int) (Release, bool) {
	best := threshold - 1
	var match Release
	found := false
	for _, release := range candidates {
		if score := show.score(release.Title); score > best {
			best = score
			match = release
			found = true
		}
	}
	return match, found
}

func (c *Client) pause(ctx context.Context) error {
	if c.queryDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.queryDelay):
		return nil
	}
}

func extensionInt(item *gofeed.Item, key string) int {
	for _, namespace := range item.Extensions {
		for _, exts := range namespace {
			for _, ext := range exts {
				if ext.Name == key {
					if value, err := strconv.Atoi(strings.TrimSpace(ext.Value)); err == nil {
						return value
					}
				}
			}
		}
	}
	return 0
}
