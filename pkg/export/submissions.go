package export

import "strings"

// Submission is one stored response to a feedback form.
type Submission struct {
	ID                string `json:"id" yaml:"id"`
	CustomerName      string `json:"customerName" yaml:"customerName"`
	Email             string `json:"email" yaml:"email"`
	ServiceRating     any    `json:"serviceRating" yaml:"serviceRating"`
	OverallExperience string `json:"overallExperience" yaml:"overallExperience"`
	Improvements      string `json:"improvements" yaml:"improvements"`
	ContactMethod     string `json:"contactMethod" yaml:"contactMethod"`
	Status            string `json:"status" yaml:"status"`
	SubmittedAt       string `json:"submittedAt" yaml:"submittedAt"`
}

// Submission export columns, in output order.
const (
	ColumnSubmissionID      = "Submission ID"
	ColumnCustomerName      = "Customer Name"
	ColumnEmail             = "Email"
	ColumnServiceRating     = "Service Rating"
	ColumnOverallExperience = "Overall Experience"
	ColumnImprovements      = "Improvements"
	ColumnContactMethod     = "Contact Method"
	ColumnStatus            = "Status"
	ColumnSubmittedAt       = "Submitted At"
)

// FormatSubmissions maps submissions to display records. Blank improvements
// read "N/A".
func FormatSubmissions(submissions []Submission) []*Record {
	out := make([]*Record, 0, len(submissions))
	for _, s := range submissions {
		improvements := s.Improvements
		if strings.TrimSpace(improvements) == "" {
			improvements = "N/A"
		}
		out = append(out, NewRecord(
			ColumnSubmissionID, s.ID,
			ColumnCustomerName, s.CustomerName,
			ColumnEmail, s.Email,
			ColumnServiceRating, s.ServiceRating,
			ColumnOverallExperience, s.OverallExperience,
			ColumnImprovements, improvements,
			ColumnContactMethod, s.ContactMethod,
			ColumnStatus, s.Status,
			ColumnSubmittedAt, s.SubmittedAt,
		))
	}
	return out
}
