package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	model "github.com/Itish41/EmployeeCounsel/models"
)

var requiredFindingFields = []string{
	"id",
	"priority",
	"category",
	"title",
	"question",
	"source_excerpt",
	"source_section",
	"explanation",
	"impact",
	"references",
	"compliance_status",
	"compliance_details",
	"recommendation",
	"severity_score",
}

var allowedPriorities = map[string]bool{
	string(model.PriorityCritical):  true,
	string(model.PriorityImportant): true,
	string(model.PriorityOptional):  true,
}

var allowedComplianceStatuses = map[string]bool{
	string(model.Compliant):               true,
	string(model.PotentiallyNonCompliant): true,
	string(model.NonCompliant):            true,
	string(model.ComplianceUnclear):       true,
}

var (
	requiredSalaryFields    = []string{"basic_salary", "gross_salary", "net_salary", "deductions", "allowances", "breakdown"}
	requiredDeductionFields = []string{"bpjs_kesehatan", "bpjs_ketenagakerjaan", "pph21", "total_deductions"}
	requiredAllowanceFields = []string{"total_allowances"}
	requiredBreakdownFields = []string{"formula", "details"}
)

// ValidateAnalysisJSON validates raw model output. Undecodable input is
// reported as a defect rather than an error.
func ValidateAnalysisJSON(data []byte) model.ValidationResult {
	var candidate any
	if err := json.Unmarshal(data, &candidate); err != nil {
		return model.ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("analysis is not valid JSON: %v", err)}}
	}
	return ValidateAnalysis(candidate)
}

// ValidateAnalysis checks a candidate analysis against the required shape and
// returns every defect found. It accepts decoded JSON (map[string]any) or any
// value that marshals to a JSON object, and never panics.
//
// Priority is not cross-checked against severity_score.
func ValidateAnalysis(candidate any) model.ValidationResult {
	var errs []string

	obj, ok := asObject(candidate)
	if !ok {
		if candidate == nil {
			errs = append(errs, "analysis result is missing")
		} else {
			errs = append(errs, "analysis result must be an object")
		}
		return model.ValidationResult{Valid: false, Errors: errs}
	}

	rawFindings, present := obj["findings"]
	findings, isList := rawFindings.([]any)
	switch {
	case !present:
		errs = append(errs, `missing required field "findings"`)
	case !isList:
		errs = append(errs, `"findings" must be a list`)
	default:
		for i, f := range findings {
			errs = append(errs, validateFinding(i, f)...)
		}
	}

	methods, present := obj["search_methods_used"]
	if !present {
		methods, present = obj["tools_used"]
	}
	if !present {
		errs = append(errs, `missing required field "search_methods_used"`)
	} else if _, ok := methods.([]any); !ok {
		errs = append(errs, `"search_methods_used" must be a list`)
	}

	if salary, ok := obj["salary_calculation"]; ok {
		errs = append(errs, ValidateSalaryCalculation(salary)...)
	}

	return model.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateFinding(i int, candidate any) []string {
	prefix := fmt.Sprintf("findings[%d]", i)
	finding, ok := candidate.(map[string]any)
	if !ok {
		return []string{prefix + ": must be an object"}
	}

	var errs []string
	for _, field := range requiredFindingFields {
		if _, ok := finding[field]; !ok {
			errs = append(errs, fmt.Sprintf("%s: missing required field %q", prefix, field))
		}
	}

	if v, ok := finding["priority"]; ok {
		if s, _ := v.(string); !allowedPriorities[s] {
			errs = append(errs, fmt.Sprintf("%s: priority must be one of critical, important, optional (got %v)", prefix, v))
		}
	}
	if v, ok := finding["compliance_status"]; ok {
		if s, _ := v.(string); !allowedComplianceStatuses[s] {
			errs = append(errs, fmt.Sprintf("%s: compliance_status must be one of compliant, potentially_non_compliant, non_compliant, unclear (got %v)", prefix, v))
		}
	}
	if v, ok := finding["severity_score"]; ok {
		score, isNum := asNumber(v)
		switch {
		case !isNum:
			errs = append(errs, fmt.Sprintf("%s: severity_score must be a number (got %v)", prefix, v))
		case score < 0 || score > 1:
			errs = append(errs, fmt.Sprintf("%s: severity_score must be between 0 and 1 (got %v)", prefix, score))
		}
	}
	if v, ok := finding["references"]; ok {
		if _, isList := v.([]any); !isList {
			errs = append(errs, prefix+": references must be a list")
		}
	}
	return errs
}

// ValidateSalaryCalculation checks the optional payslip block. An absent
// block is valid; a present one must be complete.
func ValidateSalaryCalculation(candidate any) []string {
	if candidate == nil {
		return nil
	}
	obj, ok := asObject(candidate)
	if !ok {
		return []string{"salary_calculation must be an object"}
	}

	errs := missingFields("salary_calculation", obj, requiredSalaryFields)
	errs = append(errs, validateSalaryBlock("salary_calculation.deductions", obj["deductions"], requiredDeductionFields)...)
	errs = append(errs, validateSalaryBlock("salary_calculation.allowances", obj["allowances"], requiredAllowanceFields)...)
	errs = append(errs, validateSalaryBlock("salary_calculation.breakdown", obj["breakdown"], requiredBreakdownFields)...)
	return errs
}

// validateSalaryBlock reports missing sub-fields of a present block. A
// missing block was already reported by the top-level check.
func validateSalaryBlock(path string, candidate any, required []string) []string {
	if candidate == nil {
		return nil
	}
	obj, ok := candidate.(map[string]any)
	if !ok {
		return []string{path + " must be an object"}
	}
	return missingFields(path, obj, required)
}

func missingFields(path string, obj map[string]any, required []string) []string {
	var errs []string
	for _, field := range required {
		if _, ok := obj[field]; !ok {
			errs = append(errs, fmt.Sprintf("%s: missing required field %q", path, field))
		}
	}
	return errs
}

// asObject returns candidate as a JSON object, round-tripping typed values
// such as *models.AnalysisResult through encoding/json.
func asObject(candidate any) (map[string]any, bool) {
	switch v := candidate.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, true
	case string, bool, float64, []any:
		return nil, false
	}
	data, err := json.Marshal(candidate)
	if err != nil {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
