package models

import (
	"time"

	"gorm.io/datatypes"
)

// Priority of a finding.
type Priority string

const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityOptional  Priority = "optional"
)

// PriorityForSeverity maps a severity score onto its expected priority band.
// Validation does not enforce this; it is used when a caller wants to
// suggest a priority.
func PriorityForSeverity(score float64) Priority {
	switch {
	case score >= 0.75:
		return PriorityCritical
	case score >= 0.50:
		return PriorityImportant
	default:
		return PriorityOptional
	}
}

// ComplianceStatus of a finding.
type ComplianceStatus string

const (
	Compliant               ComplianceStatus = "compliant"
	PotentiallyNonCompliant ComplianceStatus = "potentially_non_compliant"
	NonCompliant            ComplianceStatus = "non_compliant"
	ComplianceUnclear       ComplianceStatus = "unclear"
)

// AnalysisFinding is one compliance issue surfaced by document analysis.
type AnalysisFinding struct {
	ID                string           `json:"id"`
	Priority          Priority         `json:"priority"`
	Category          string           `json:"category"`
	Title             string           `json:"title"`
	Question          string           `json:"question"`
	SourceExcerpt     string           `json:"source_excerpt"`
	SourceSection     string           `json:"source_section"`
	Explanation       string           `json:"explanation"`
	Impact            string           `json:"impact"`
	References        []Reference      `json:"references"`
	ComplianceStatus  ComplianceStatus `json:"compliance_status"`
	ComplianceDetails string           `json:"compliance_details"`
	Recommendation    string           `json:"recommendation"`
	// SeverityScore is the authoritative risk signal, in [0,1].
	SeverityScore float64 `json:"severity_score"`
}

// SalaryDeductions is the deduction block of a payslip calculation.
type SalaryDeductions struct {
	BPJSKesehatan       float64 `json:"bpjs_kesehatan"`
	BPJSKetenagakerjaan float64 `json:"bpjs_ketenagakerjaan"`
	PPh21               float64 `json:"pph21"`
	TotalDeductions     float64 `json:"total_deductions"`
}

// SalaryAllowances is the allowance block of a payslip calculation.
type SalaryAllowances struct {
	Items           map[string]float64 `json:"items,omitempty"`
	TotalAllowances float64            `json:"total_allowances"`
}

// SalaryBreakdown explains how net pay was derived.
type SalaryBreakdown struct {
	Formula string `json:"formula"`
	Details string `json:"details"`
}

// SalaryCalculation is only produced when the analysed document is a payslip.
type SalaryCalculation struct {
	BasicSalary float64          `json:"basic_salary"`
	GrossSalary float64          `json:"gross_salary"`
	NetSalary   float64          `json:"net_salary"`
	Deductions  SalaryDeductions `json:"deductions"`
	Allowances  SalaryAllowances `json:"allowances"`
	Breakdown   SalaryBreakdown  `json:"breakdown"`
}

// AnalysisResult is the structured output of the document-analysis call.
type AnalysisResult struct {
	Summary           string             `json:"summary,omitempty"`
	Findings          []AnalysisFinding  `json:"findings"`
	SalaryCalculation *SalaryCalculation `json:"salary_calculation,omitempty"`
	SearchMethodsUsed []string           `json:"search_methods_used"`
}

// ValidationResult lists every shape defect found in a candidate analysis.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// AnalysisRecord stores the outcome of analysing one document.
type AnalysisRecord struct {
	// ID is a unique identifier for the analysis, stored as a UUID.
	ID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`

	// DocumentID references the analysed IndexedDocument.
	DocumentID string  `gorm:"index" json:"document_id"`
	OwnerID    string  `gorm:"not null;index" json:"owner_id"`
	SessionID  *string `json:"session_id,omitempty"`

	// Structured is false when the model output failed validation and only
	// the narrative answer was kept.
	Structured bool `json:"structured"`

	// Result and References hold the validated analysis as JSONB.
	Result     datatypes.JSON `json:"result,omitempty"`
	References datatypes.JSON `json:"references,omitempty"`

	// Defects holds validator output for unstructured records.
	Defects datatypes.JSON `json:"defects,omitempty"`

	RawAnswer         string `json:"raw_answer"`
	ProviderRequestID string `json:"provider_request_id"`
	TotalTokens       int    `json:"total_tokens"`
	LatencyMs         int64  `json:"latency_ms"`

	CreatedAt time.Time `json:"created_at"`
}
