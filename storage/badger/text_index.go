package badger

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Indexed field names for the lexical side of hybrid search.
const (
	textFieldContent  = "content"
	textFieldFilename = "filename"
)

// textEntry is the projection of a document that goes into the text index.
// Document bodies live in BadgerDB; the index only needs the searchable text
// and the filename for filtering.
type textEntry struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

// createTextIndexMapping creates the Bleve index mapping for log documents.
func createTextIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Content field - analyzed for full-text search
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = false
	docMapping.AddFieldMappingsAt(textFieldContent, contentField)

	// Filename - keyword (not analyzed), used for exact filtering
	filenameField := bleve.NewTextFieldMapping()
	filenameField.Analyzer = keyword.Name
	filenameField.Store = false
	docMapping.AddFieldMappingsAt(textFieldFilename, filenameField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// OpenTextIndex opens or creates a Bleve text index at the given path.
// Pass the result to WithTextIndex to enable hybrid search.
func OpenTextIndex(path string) (bleve.Index, error) {
	index, err := bleve.Open(path)
	if err == nil {
		return index, nil
	}
	return bleve.New(path, createTextIndexMapping())
}

// NewMemoryTextIndex creates an in-memory Bleve text index for testing.
func NewMemoryTextIndex() (bleve.Index, error) {
	return bleve.NewMemOnly(createTextIndexMapping())
}

// buildTextQuery constructs the lexical query for one search, combining the
// content match with an exact filename restriction when a filter is set.
func buildTextQuery(text, filename string) query.Query {
	contentQuery := bleve.NewMatchQuery(text)
	contentQuery.SetField(textFieldContent)

	if filename == "" {
		return contentQuery
	}

	filenameQuery := bleve.NewTermQuery(filename)
	filenameQuery.SetField(textFieldFilename)

	return bleve.NewConjunctionQuery(contentQuery, filenameQuery)
}
