package corpus

import "github.com/serverscout/serverscout/internal/domain/record"

// serverDTO mirrors one entry of the bundled corpus file: a flat JSON
// array of server records.
type serverDTO struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Description string            `json:"description"`
	Homepage    string            `json:"homepage"`
	Repository  repositoryDTO     `json:"repository"`
	Categories  record.StringList `json:"categories"`
	Tags        record.StringList `json:"tags"`
}

type repositoryDTO struct {
	URL string `json:"url"`
}

func (d serverDTO) toRecord() record.Record {
	title := d.DisplayName
	if title == "" {
		title = d.Name
	}
	url := d.Repository.URL
	if url == "" {
		url = d.Homepage
	}
	return record.Record{
		Title:       title,
		Description: d.Description,
		SourceURL:   url,
		Categories:  d.Categories,
		Tags:        d.Tags,
	}
}
