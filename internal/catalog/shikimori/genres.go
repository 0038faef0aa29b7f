package shikimori

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// genreIDs maps Russian genre names to Shikimori genre ids. The ids follow
// the MyAnimeList numbering Shikimori inherited.
var genreIDs = map[string]int{
	"экшен":             1,
	"приключения":       2,
	"комедия":           4,
	"детектив":          7,
	"драма":             8,
	"фэнтези":           10,
	"ужасы":             14,
	"музыка":            19,
	"романтика":         22,
	"фантастика":        24,
	"спорт":             30,
	"повседневность":    36,
	"сверхъестественное": 37,
	"триллер":           41,
}

// genreNames is the reverse of genreIDs, built once at init.
var genreNames = func() map[int]string {
	names := make(map[int]string, len(genreIDs))
	for name, id := range genreIDs {
		names[id] = name
	}
	return names
}()

// GenreID resolves a Russian genre name to its catalog id. The lookup is
// case-insensitive.
func GenreID(name string) (int, bool) {
	id, ok := genreIDs[cases.Fold().String(strings.TrimSpace(name))]
	return id, ok
}

// GenreName returns the display name for a genre id.
func GenreName(id int) (string, bool) {
	name, ok := genreNames[id]
	return name, ok
}

// GenreNames lists the known genre names for help text and validation
// messages, sorted alphabetically.
func GenreNames() []string {
	names := make([]string, 0, len(genreIDs))
	for name := range genreIDs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
