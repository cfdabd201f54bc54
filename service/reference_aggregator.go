package services

import (
	"slices"

	model "github.com/Itish41/EmployeeCounsel/models"
)

// AggregateReferences collapses the references of every finding into one
// deduplicated list per source type, in first-sight order. Each entry records
// the ids of the findings that cited it.
func AggregateReferences(findings []model.AnalysisFinding) model.AggregatedReferences {
	out := model.AggregatedReferences{
		StoredRegulations: []model.AggregatedRegulation{},
		WebSources:        []model.AggregatedWebSource{},
	}
	regulationAt := map[string]int{}
	webAt := map[string]int{}

	for _, finding := range findings {
		for _, ref := range finding.References {
			key, ok := ref.Key()
			if !ok {
				continue
			}

			switch ref.Type {
			case model.RefStoredRegulation:
				if i, seen := regulationAt[key]; seen {
					out.StoredRegulations[i].UsedInFindings = appendUnique(out.StoredRegulations[i].UsedInFindings, finding.ID)
					continue
				}
				info := ParseRegulationInfo(ref.StoredRegulation.Title)
				regulationAt[key] = len(out.StoredRegulations)
				out.StoredRegulations = append(out.StoredRegulations, model.AggregatedRegulation{
					StoredRegulationReference: *ref.StoredRegulation,
					RegulationType:            info.Type,
					RegulationNumber:          info.Number,
					RegulationCategory:        info.Category,
					UsedInFindings:            []string{finding.ID},
				})
			case model.RefWebSearch:
				if i, seen := webAt[key]; seen {
					out.WebSources[i].UsedInFindings = appendUnique(out.WebSources[i].UsedInFindings, finding.ID)
					continue
				}
				webAt[key] = len(out.WebSources)
				out.WebSources = append(out.WebSources, model.AggregatedWebSource{
					WebSearchReference: *ref.WebSearch,
					UsedInFindings:     []string{finding.ID},
				})
			}
		}
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
