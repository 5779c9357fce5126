package library

// Document is a single retrievable document in the library. Documents are
// immutable once retrieved; the analysis engine never writes them back.
type Document struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	PublishedDate *string `json:"publication_date,omitempty"`
	FullText      string  `json:"full_text"`
	SourceTag     string  `json:"source_tag"`
	SourceURL     *string `json:"source_url,omitempty"`
	AddedAt       *string `json:"added_at,omitempty"`
}

// Stats summarizes the library contents.
type Stats struct {
	TotalDocuments int
	TotalAuthors   int
	TotalSources   int
}
