package reporting

import "github.com/mamadbah2/rigcost/internal/domain/models"

// Row is one line of the table view.
type Row struct {
	models.EntryRecord
	Valid               bool   `json:"valid"`
	Key                 string `json:"key,omitempty"`
	AttachmentAvailable bool   `json:"attachment_available"`
}

// AttachmentRef is one entry of the PDF viewer list.
type AttachmentRef struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Dashboard carries everything the cost tracking page renders.
type Dashboard struct {
	Rows        []Row                `json:"rows"`
	Series      []models.SeriesPoint `json:"series"`
	Summary     models.CostSummary   `json:"summary"`
	Estimate    models.Estimate      `json:"estimate"`
	Attachments []AttachmentRef      `json:"attachments"`
}

// attachmentRefs lists the distinct file names of valid rows in first-seen order.
func attachmentRefs(rows []Row) []AttachmentRef {
	seen := make(map[string]struct{})
	refs := make([]AttachmentRef, 0)
	for _, row := range rows {
		if !row.Valid || row.Filename == "" {
			continue
		}
		if _, dup := seen[row.Filename]; dup {
			continue
		}
		seen[row.Filename] = struct{}{}
		refs = append(refs, AttachmentRef{Name: row.Filename, Available: row.AttachmentAvailable})
	}
	return refs
}
