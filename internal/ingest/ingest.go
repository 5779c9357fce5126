// Package ingest loads documents into the library from feeds, URLs, and the
// built-in sample corpus.
package ingest

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"github.com/tanDivina/agent-scholar/internal/config"
	"github.com/tanDivina/agent-scholar/internal/library"
)

// Result summarizes an ingestion run.
type Result struct {
	TotalFound   int
	NewDocuments int
	Duplicates   int
	Sources      map[string]int
}

// Ingestor writes incoming documents into the library.
type Ingestor struct {
	db     *library.DB
	client *http.Client
}

func NewIngestor(db *library.DB) *Ingestor {
	return &Ingestor{
		db: db,
		client: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// IngestFeeds pulls the configured feeds and stores new entries. Entries
// whose source URL is already in the library count as duplicates.
func (in *Ingestor) IngestFeeds(sources config.Sources, daysBack int) *Result {
	r := &Result{Sources: make(map[string]int)}

	feeds := make([]FeedSource, len(sources.Feeds))
	for i, f := range sources.Feeds {
		feeds[i] = FeedSource{URL: f.URL, Name: f.Name}
	}

	entries := ParseFeeds(feeds, daysBack)
	r.TotalFound = len(entries)

	for _, entry := range entries {
		sourceURL := entry.URL
		doc := library.Document{
			ID:        uuid.NewString(),
			Title:     entry.Title,
			Author:    entry.Author,
			FullText:  entry.Content,
			SourceTag: entry.Source,
			SourceURL: &sourceURL,
		}
		if entry.PublishedDate != "" {
			pub := entry.PublishedDate
			doc.PublishedDate = &pub
		}

		inserted, err := in.db.InsertDocument(doc)
		if err != nil {
			log.Printf("Failed to store %s: %v", entry.URL, err)
			continue
		}
		if inserted {
			r.NewDocuments++
			r.Sources[entry.Source]++
		} else {
			r.Duplicates++
		}
	}

	log.Printf("Feed ingestion complete: %d found, %d new, %d duplicates",
		r.TotalFound, r.NewDocuments, r.Duplicates)
	return r
}

// IngestURL fetches a single page, extracts its readable text, and stores it.
func (in *Ingestor) IngestURL(rawURL, author, tag string) (*library.Document, error) {
	title, text, err := in.fetchReadable(rawURL)
	if err != nil {
		return nil, err
	}

	sourceURL := rawURL
	doc := library.Document{
		ID:        uuid.NewString(),
		Title:     title,
		Author:    author,
		FullText:  text,
		SourceTag: tag,
		SourceURL: &sourceURL,
	}

	inserted, err := in.db.InsertDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}
	if !inserted {
		return nil, fmt.Errorf("document already in library: %s", rawURL)
	}
	return &doc, nil
}

func (in *Ingestor) fetchReadable(rawURL string) (title, text string, err error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", "agent-scholar/1.0 (document library)")

	resp, err := in.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("fetching %s: %s", rawURL, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", rawURL, err)
	}

	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", "", fmt.Errorf("extracting content from %s: %w", rawURL, err)
	}

	text = strings.TrimSpace(article.TextContent)
	if len(text) < 100 {
		return "", "", fmt.Errorf("no extractable content at %s", rawURL)
	}
	title = strings.TrimSpace(article.Title)
	if title == "" {
		title = rawURL
	}
	return title, text, nil
}

// SeedSampleDocuments installs a small fixed corpus with deliberately
// divergent stances, handy for trying the analyzer on an empty library.
// Returns the number of documents added; re-seeding is a no-op.
func (in *Ingestor) SeedSampleDocuments() (int, error) {
	samples := []library.Document{
		{
			ID:       "sample_1",
			Title:    "The Benefits of Machine Learning",
			Author:   "Dr. Alice Johnson",
			FullText: "Machine learning has revolutionized many industries. It provides excellent results in pattern recognition and data analysis. The technology is definitely beneficial for businesses and research. Machine learning algorithms can effectively process large datasets and identify complex patterns.",
		},
		{
			ID:       "sample_2",
			Title:    "Challenges in Artificial Intelligence",
			Author:   "Prof. Bob Smith",
			FullText: "Artificial intelligence faces significant challenges. The technology is not always reliable and can produce poor results. There are many problematic aspects of AI implementation. Perhaps the most concerning issue is the uncertainty around AI decision-making processes.",
		},
		{
			ID:       "sample_3",
			Title:    "Future of Data Science",
			Author:   "Dr. Carol Davis",
			FullText: "Data science continues to grow rapidly. The field shows positive trends in job market and research funding. Data scientists are increasingly important for business intelligence. The future looks bright for data science professionals.",
		},
	}

	added := 0
	for _, doc := range samples {
		doc.SourceTag = "sample"
		existing, err := in.db.GetDocument(doc.ID)
		if err != nil {
			return added, err
		}
		if existing != nil {
			continue
		}
		if _, err := in.db.InsertDocument(doc); err != nil {
			return added, fmt.Errorf("seeding %s: %w", doc.ID, err)
		}
		added++
	}
	return added, nil
}
