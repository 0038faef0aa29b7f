// Package domain contains the core entities shared across the sekai server.
package domain

// Provenance marks which schema an anime record carries: the nested shape
// returned by the upstream catalog, or the flattened shape stored in the
// cache tiers.
type Provenance string

const (
	// ProvenanceRaw marks records in the upstream catalog schema.
	ProvenanceRaw Provenance = "raw"
	// ProvenanceCached marks records in the flattened cache schema.
	ProvenanceCached Provenance = "cached"
)

// Poster holds the two poster URLs the upstream catalog returns.
type Poster struct {
	OriginalURL string `json:"originalUrl"`
	MainURL     string `json:"mainUrl"`
}

// GenreRef is a genre as returned by the upstream catalog.
type GenreRef struct {
	ID      string `json:"id,omitempty"`
	Russian string `json:"russian"`
}

// StudioRef is a studio as returned by the upstream catalog.
type StudioRef struct {
	Name string `json:"name"`
}

// RawAnime is an anime record exactly as the upstream catalog returns it.
// Nested sub-objects are preserved; a carousel created from a fresh search
// renders this shape for its whole lifetime.
type RawAnime struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Russian       string      `json:"russian"`
	Kind          string      `json:"kind"`
	Rating        string      `json:"rating"`
	Score         float64     `json:"score"`
	Episodes      int         `json:"episodes"`
	EpisodesAired int         `json:"episodesAired"`
	URL           string      `json:"url"`
	Season        string      `json:"season"`
	Poster        *Poster     `json:"poster"`
	Genres        []GenreRef  `json:"genres"`
	Studios       []StudioRef `json:"studios"`
	Description   string      `json:"description"`
}

// CacheEntry is the flattened cache schema written to the file indexes and
// the durable store. Genres and studios collapse to display-name lists and
// the poster collapses to single URLs. Entries are immutable once
// materialized; a re-fetch replaces the entry wholesale.
type CacheEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Russian     string   `json:"russian"`
	Score       float64  `json:"score"`
	URL         string   `json:"url"`
	MainURL     string   `json:"mainUrl"`
	Rating      string   `json:"rating"`
	Episodes    int      `json:"episodes"`
	Kind        string   `json:"kind"`
	Poster      string   `json:"poster"`
	Genres      []string `json:"genres"`
	Studios     []string `json:"studios"`
	Description string   `json:"description"`
	PlayerURL   string   `json:"playerUrl,omitempty"`
}

// RecordView is the provenance-independent render model used by carousels
// and API responses. Both record shapes project onto it.
type RecordView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Russian     string   `json:"russian"`
	Kind        string   `json:"kind"`
	Score       float64  `json:"score"`
	Episodes    int      `json:"episodes"`
	Genres      []string `json:"genres"`
	Studios     []string `json:"studios"`
	Poster      string   `json:"poster"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	PlayerURL   string   `json:"playerUrl,omitempty"`
}

// View projects a raw record onto the render model. The main poster URL is
// preferred, falling back to the original.
func (a *RawAnime) View() RecordView {
	genres := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		genres = append(genres, g.Russian)
	}
	studios := make([]string, 0, len(a.Studios))
	for _, s := range a.Studios {
		studios = append(studios, s.Name)
	}

	var poster string
	if a.Poster != nil {
		poster = a.Poster.MainURL
		if poster == "" {
			poster = a.Poster.OriginalURL
		}
	}

	return RecordView{
		ID:          a.ID,
		Name:        a.Name,
		Russian:     a.Russian,
		Kind:        a.Kind,
		Score:       a.Score,
		Episodes:    a.Episodes,
		Genres:      genres,
		Studios:     studios,
		Poster:      poster,
		Description: a.Description,
		URL:         a.URL,
	}
}

// View projects a flattened cache entry onto the render model.
func (e *CacheEntry) View() RecordView {
	return RecordView{
		ID:          e.ID,
		Name:        e.Name,
		Russian:     e.Russian,
		Kind:        e.Kind,
		Score:       e.Score,
		Episodes:    e.Episodes,
		Genres:      e.Genres,
		Studios:     e.Studios,
		Poster:      e.Poster,
		Description: e.Description,
		URL:         e.URL,
		PlayerURL:   e.PlayerURL,
	}
}
