package services

import (
	"fmt"

	model "github.com/Itish41/EmployeeCounsel/models"
)

const analysisSchemaName = "employment_document_analysis"

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func numberProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func enumProp(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

var referenceSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type":                enumProp(string(model.RefStoredRegulation), string(model.RefWebSearch)),
		"source_id":           stringProp("Identifier of the stored regulation"),
		"title":               stringProp("Regulation or page title"),
		"article":             stringProp("Article or section of the regulation"),
		"excerpt":             stringProp("Quoted passage of the regulation"),
		"regulation_file_ref": stringProp("File id of the regulation in the index"),
		"url":                 stringProp("Web page URL"),
		"snippet":             stringProp("Relevant text from the web page"),
		"domain":              stringProp("Domain of the web page"),
		"published_date":      stringProp("Publication date, if known"),
		"relevance_score":     numberProp("Relevance between 0 and 1"),
	},
	"required": []string{"type", "title"},
}

var findingSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":                 stringProp("Stable identifier such as finding-1"),
		"priority":           enumProp(string(model.PriorityCritical), string(model.PriorityImportant), string(model.PriorityOptional)),
		"category":           stringProp("Topic of the issue, e.g. working hours"),
		"title":              stringProp("Short title of the issue"),
		"question":           stringProp("Question the employee should raise with HR"),
		"source_excerpt":     stringProp("Verbatim quote from the analysed document"),
		"source_section":     stringProp("Section or clause the excerpt comes from"),
		"explanation":        stringProp("Why this matters"),
		"impact":             stringProp("Consequence for the employee"),
		"references":         map[string]any{"type": "array", "items": referenceSchema},
		"compliance_status":  enumProp(string(model.Compliant), string(model.PotentiallyNonCompliant), string(model.NonCompliant), string(model.ComplianceUnclear)),
		"compliance_details": stringProp("How the clause compares with the regulation"),
		"recommendation":     stringProp("What the employee should do"),
		"severity_score": map[string]any{
			"type": "number", "minimum": 0, "maximum": 1,
			"description": "Risk from 0 to 1; >=0.75 critical, >=0.50 important, otherwise optional",
		},
	},
	"required": requiredFindingFields,
}

var salarySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"basic_salary": numberProp("Basic monthly salary"),
		"gross_salary": numberProp("Gross monthly salary"),
		"net_salary":   numberProp("Take-home pay"),
		"deductions": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"bpjs_kesehatan":       numberProp("BPJS Kesehatan employee share"),
				"bpjs_ketenagakerjaan": numberProp("BPJS Ketenagakerjaan employee share"),
				"pph21":                numberProp("PPh 21 income tax"),
				"total_deductions":     numberProp("Sum of deductions"),
			},
			"required": requiredDeductionFields,
		},
		"allowances": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"items":            map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "number"}},
				"total_allowances": numberProp("Sum of allowances"),
			},
			"required": requiredAllowanceFields,
		},
		"breakdown": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"formula": stringProp("Formula used for net salary"),
				"details": stringProp("Step-by-step calculation"),
			},
			"required": requiredBreakdownFields,
		},
	},
	"required": requiredSalaryFields,
}

// analysisResponseFormat is the JSON schema the analysis call is held to.
// The salary block is offered only for payslips.
func analysisResponseFormat(kind model.DocumentKind) *model.ResponseFormat {
	props := map[string]any{
		"summary":             stringProp("Two or three sentence overview"),
		"findings":            map[string]any{"type": "array", "items": findingSchema},
		"search_methods_used": map[string]any{"type": "array", "items": enumProp(string(model.ToolDocumentSearch), string(model.ToolWebSearch))},
	}
	if kind == model.KindPayslip {
		props["salary_calculation"] = salarySchema
	}
	return &model.ResponseFormat{
		Name: analysisSchemaName,
		Schema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []string{"findings", "search_methods_used"},
		},
		Strict: false,
	}
}

func analysisInstructions(kind model.DocumentKind) string {
	instructions := `You are an Indonesian employment-law assistant reviewing a document for an employee.
Read the attached document and compare every material clause with the stored regulations
(search them with the file search tool) and with current sources on the web.
Report each issue as a finding. Quote the document verbatim in source_excerpt and cite
every regulation or web page you relied on in references. severity_score is the
authoritative risk signal; choose priority to match it. List the tools you used in
search_methods_used. Answer with JSON only.`
	if kind == model.KindPayslip {
		instructions += "\nThe document is a payslip: also fill salary_calculation, checking BPJS and PPh 21 deductions."
	}
	return fmt.Sprintf("%s\nDocument type: %s.", instructions, kind)
}
