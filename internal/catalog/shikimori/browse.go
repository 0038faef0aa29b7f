package shikimori

import (
	"context"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/sekaibot/sekai-server/internal/domain"
)

const browseQuery = `
query GetAnime($genre: String, $score: Int, $limit: Int, $page: Int) {
  animes(genre: $genre, score: $score, limit: $limit, page: $page, kind: "` + kindFilter + `") {
    id
    name
    russian
    kind
    rating
    episodes
    score
    url
    poster {
      originalUrl
      mainUrl
    }
    genres {
      id
      russian
    }
    studios {
      name
    }
    description
  }
}`

const topByYearQuery = `
query GetAnime($year: Int, $limit: Int, $page: Int) {
    animes(year: $year, limit: $limit, page: $page) {
        id
        name
        russian
        kind
        rating
        score
        episodes
        episodesAired
        url
        season
        poster {
            originalUrl
            mainUrl
        }
        genres { russian }
        studios { name }
        description
    }
}`

// BrowseParams filters a genre browse.
type BrowseParams struct {
	GenreID  int
	MinScore int
	Limit    int
}

// BrowseByGenre pages through the catalog for a genre with a minimum score.
// Pages are picked at random to vary the selection between calls; the second
// attempt falls back to the first page so sparse genres still fill. Results
// are deduplicated by id and the total number of upstream requests is capped
// regardless of how few distinct records are found.
//
// An under-filled result is returned sorted by score descending; an
// over-filled one is sampled down to the requested size. Browse results are
// exploratory and are never written to the cache tiers.
func (c *Client) BrowseByGenre(ctx context.Context, params BrowseParams) ([]domain.RawAnime, error) {
	limit := clampLimit(params.Limit)

	collected := make([]domain.RawAnime, 0, limit)
	seen := make(map[string]bool)

	var lastErr error
	requests := 0
	for len(collected) < limit && requests < c.browseMaxRequests {
		page := rand.IntN(c.browseMaxPage) + 1
		if requests == 1 {
			page = 1
		}

		variables := map[string]any{
			"genre": strconv.Itoa(params.GenreID),
			"score": params.MinScore,
			"limit": browsePageSize,
			"page":  page,
		}

		var payload animesPayload
		if err := c.doQuery(ctx, keyBrowse, browseQuery, variables, &payload); err != nil {
			if ctx.Err() != nil {
				return nil, wrapError("browse", strconv.Itoa(params.GenreID), err)
			}
			// A failed page spends budget but does not abort the browse.
			lastErr = err
			c.logger.Warn("browse page failed",
				"genre", params.GenreID,
				"page", page,
				"error", err,
			)
			requests++
			continue
		}

		for i := range payload.Animes {
			anime := payload.Animes[i]
			if anime.ID == "" || seen[anime.ID] {
				continue
			}
			seen[anime.ID] = true
			collected = append(collected, anime)
		}
		requests++
	}

	// An under-filled result is a partial set, not a failure, but when no
	// page produced anything and at least one failed on transport the caller
	// must see a transport failure rather than "no results".
	if len(collected) == 0 && lastErr != nil {
		return nil, wrapError("browse", strconv.Itoa(params.GenreID), lastErr)
	}
	if len(collected) < limit {
		c.logger.Warn("browse under-filled",
			"genre", params.GenreID,
			"want", limit,
			"got", len(collected),
		)
	}

	return fitToLimit(collected, limit), nil
}

// TopByYear returns up to ten records for a year, filtered by minimum score
// and sorted by score descending. A bounded number of random pages is tried;
// later attempts narrow the page range to land on denser pages.
func (c *Client) TopByYear(ctx context.Context, year, minScore int) ([]domain.RawAnime, error) {
	const limit = 10
	pageRanges := []int{10, 5}

	var lastErr error
	succeeded := false
	for _, rangeLimit := range pageRanges {
		page := rand.IntN(rangeLimit) + 1

		variables := map[string]any{
			"year":  year,
			"limit": limit,
			"page":  page,
		}

		var payload animesPayload
		if err := c.doQuery(ctx, keyBrowse, topByYearQuery, variables, &payload); err != nil {
			if ctx.Err() != nil {
				return nil, wrapError("topByYear", strconv.Itoa(year), err)
			}
			lastErr = err
			c.logger.Warn("top-by-year page failed",
				"year", year,
				"page", page,
				"error", err,
			)
			continue
		}
		succeeded = true

		filtered := payload.Animes[:0:0]
		for _, anime := range payload.Animes {
			if anime.Score >= float64(minScore) {
				filtered = append(filtered, anime)
			}
		}
		if len(filtered) == 0 {
			continue
		}

		sortByScoreDesc(filtered)
		if len(filtered) > limit {
			filtered = filtered[:limit]
		}
		return filtered, nil
	}

	// A reachable catalog with no qualifying records is an empty result; a
	// catalog that failed every attempt is a transport failure.
	if !succeeded && lastErr != nil {
		return nil, wrapError("topByYear", strconv.Itoa(year), lastErr)
	}
	return nil, nil
}

// fitToLimit ranks an under-filled set by score and samples an over-filled
// one down to limit.
func fitToLimit(animes []domain.RawAnime, limit int) []domain.RawAnime {
	if len(animes) > limit {
		rand.Shuffle(len(animes), func(i, j int) {
			animes[i], animes[j] = animes[j], animes[i]
		})
		return animes[:limit]
	}
	sortByScoreDesc(animes)
	return animes
}

func sortByScoreDesc(animes []domain.RawAnime) {
	slices.SortStableFunc(animes, func(a, b domain.RawAnime) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}
