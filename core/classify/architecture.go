package classify

import (
	"fmt"
	"regexp"

	"github.com/huangsam/waypoint/schema"
)

// Thresholds of the architecture summary.
const (
	datasetMinUnits        = 3
	datasetDataAccessShare = 0.20
	separatedMaxSQLUIShare = 0.10
)

var datasetPattern = regexp.MustCompile(`\b\w*TableAdapter\b|\bnew\s+\w+DataSet\s*\(|:\s*(global::)?(System\.Data\.)?DataSet\b|\bInherits\s+(System\.Data\.)?DataSet\b`)

// UsesTypedDataSet reports whether content uses typed DataSets or TableAdapters.
func UsesTypedDataSet(content string) bool {
	return datasetPattern.MatchString(content)
}

// Summarize classifies the layering of a scanned codebase.
func Summarize(units []schema.SourceUnit) schema.ArchitectureSummary {
	var dataAccess, business, ui, uiWithSQL, datasetUnits int
	for _, u := range units {
		switch u.Kind {
		case schema.KindDataAccess:
			dataAccess++
		case schema.KindBusinessLogic:
			business++
		case schema.KindUIPage, schema.KindCodeBehind, schema.KindUserControl:
			ui++
			if HasSQL(u.Content) {
				uiWithSQL++
			}
		}
		if UsesTypedDataSet(u.Content) {
			datasetUnits++
		}
	}

	evidence := []string{
		fmt.Sprintf("%d data-access units", dataAccess),
		fmt.Sprintf("%d business-logic units", business),
		fmt.Sprintf("%d presentation units, %d with inline SQL", ui, uiWithSQL),
	}
	if datasetUnits > 0 {
		evidence = append(evidence, fmt.Sprintf("%d units use typed DataSets or TableAdapters", datasetUnits))
	}

	pattern := schema.PatternPartial
	switch {
	case dataAccess == 0 && business == 0:
		pattern = schema.PatternNone
	case datasetUnits >= datasetMinUnits ||
		(dataAccess > 0 && float64(datasetUnits) >= datasetDataAccessShare*float64(dataAccess)):
		pattern = schema.PatternLegacyDataset
	case dataAccess > 0 && business > 0 &&
		(ui == 0 || float64(uiWithSQL) <= separatedMaxSQLUIShare*float64(ui)):
		pattern = schema.PatternGoodSeparation
	}
	return schema.ArchitectureSummary{Pattern: pattern, Evidence: evidence}
}
