package domain

// StepDirection is a carousel cursor movement.
type StepDirection string

const (
	// StepPrev moves the cursor backwards, wrapping to the last record.
	StepPrev StepDirection = "prev"
	// StepNext moves the cursor forwards, wrapping to the first record.
	StepNext StepDirection = "next"
)

// Carousel is an ephemeral, owner-scoped paging session over a fixed record
// list. The sequence is set at creation and never re-fetched or re-ordered;
// only the cursor moves. The provenance tag is chosen once from the sequence
// and determines which record shape backs the views.
type Carousel struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Provenance Provenance `json:"provenance"`

	// Exactly one of Raw or Cached is populated, matching Provenance.
	Raw    []RawAnime   `json:"raw,omitempty"`
	Cached []CacheEntry `json:"cached,omitempty"`

	Total        int   `json:"total"`
	CurrentIndex int   `json:"current_index"`
	OwnerID      int64 `json:"owner_id"`
}

// Len returns the sequence length.
func (c *Carousel) Len() int {
	if c.Provenance == ProvenanceRaw {
		return len(c.Raw)
	}
	return len(c.Cached)
}

// At projects the record at position i onto the render model, using the
// accessor that matches the session's provenance tag.
func (c *Carousel) At(i int) RecordView {
	if c.Provenance == ProvenanceRaw {
		return c.Raw[i].View()
	}
	return c.Cached[i].View()
}

// Current projects the record under the cursor.
func (c *Carousel) Current() RecordView {
	return c.At(c.CurrentIndex)
}

// Advance moves the cursor by delta with wrap-around in both directions.
// There is no first/last boundary; stepping past either end wraps.
func (c *Carousel) Advance(delta int) {
	n := c.Len()
	c.CurrentIndex = ((c.CurrentIndex+delta)%n + n) % n
}
