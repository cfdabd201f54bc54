package services

import (
	"regexp"
	"strings"

	model "github.com/Itish41/EmployeeCounsel/models"
)

var (
	regulationTypeRx    = regexp.MustCompile(`(?i)^\s*(uu|pp|permen|perda|perpres)\b`)
	regulationNumberRx  = regexp.MustCompile(`(?i)\bno\.?\s*(\d+)\s*/\s*(\d{4})\b`)
	bareNumberRx        = regexp.MustCompile(`\b(\d+)/(\d{4})\b`)
	regulationSubjectRx = regexp.MustCompile(`(?i)\b(?:on|tentang)\b\s*(.*)$`)
)

// categoryBuckets are checked in order; social security comes before labor
// because "BPJS Ketenagakerjaan" names both.
var categoryBuckets = []struct {
	category string
	keywords []string
}{
	{"social-security", []string{"bpjs", "jaminan sosial", "social security"}},
	{"wages", []string{"pengupahan", "upah", "wage", "salary", "gaji"}},
	{"labor-law", []string{"ketenagakerjaan", "tenaga kerja", "cipta kerja", "labor", "labour", "employment"}},
	{"taxation", []string{"tax", "pph"}},
}

// ParseRegulationInfo derives type, number and category from a regulation
// title such as "UU No. 13/2003 tentang Ketenagakerjaan". Titles that do not
// follow the usual shape fall back to other/unknown/general.
func ParseRegulationInfo(title string) model.RegulationInfo {
	info := model.RegulationInfo{Type: "other", Number: "unknown", Category: "general"}

	if m := regulationTypeRx.FindStringSubmatch(title); m != nil {
		info.Type = strings.ToLower(m[1])
	}

	if m := regulationNumberRx.FindStringSubmatch(title); m != nil {
		info.Number = m[1] + "/" + m[2]
	} else if m := bareNumberRx.FindStringSubmatch(title); m != nil {
		info.Number = m[1] + "/" + m[2]
	}

	if m := regulationSubjectRx.FindStringSubmatch(title); m != nil {
		subject := strings.ToLower(m[1])
		for _, bucket := range categoryBuckets {
			if containsAny(subject, bucket.keywords) {
				info.Category = bucket.category
				break
			}
		}
	}
	return info
}

// regulationYear returns the year part of a parsed number, or "".
func regulationYear(number string) string {
	if i := strings.LastIndex(number, "/"); i >= 0 {
		return number[i+1:]
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
