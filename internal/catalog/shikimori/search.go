package shikimori

import (
	"context"

	"github.com/sekaibot/sekai-server/internal/domain"
)

// kindFilter excludes shorts, specials and music videos from search results
// so carousels only show watchable series and films.
const kindFilter = "!special,!ova,!ona,!music,!pv,!cm,!tv_special"

const searchQuery = `
query GetAnime($search: String, $limit: Int) {
    animes(search: $search, limit: $limit, kind: "` + kindFilter + `") {
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

const byIDQuery = `
query GetAnimeByID($ids: String, $limit: Int) {
    animes(ids: $ids, limit: $limit) {
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

// animesPayload is the data envelope shared by all anime queries.
type animesPayload struct {
	Animes []domain.RawAnime `json:"animes"`
}

// SearchAnime searches the catalog by title.
// Returns the raw upstream records; an empty slice is a successful call with
// no matches, distinct from a transport error.
func (c *Client) SearchAnime(ctx context.Context, title string, limit int) ([]domain.RawAnime, error) {
	variables := map[string]any{
		"search": title,
		"limit":  clampLimit(limit),
	}

	var payload animesPayload
	if err := c.doQuery(ctx, keySearch, searchQuery, variables, &payload); err != nil {
		return nil, wrapError("search", title, err)
	}

	c.logger.Debug("shikimori search done",
		"title", title,
		"results", len(payload.Animes),
	)

	return payload.Animes, nil
}

// AnimeByID fetches a single record by its catalog id.
// Returns nil without error when the id does not exist upstream.
func (c *Client) AnimeByID(ctx context.Context, id string) (*domain.RawAnime, error) {
	variables := map[string]any{
		"ids":   id,
		"limit": 1,
	}

	var payload animesPayload
	if err := c.doQuery(ctx, keyByID, byIDQuery, variables, &payload); err != nil {
		return nil, wrapError("byID", id, err)
	}

	if len(payload.Animes) == 0 {
		return nil, nil
	}
	return &payload.Animes[0], nil
}
