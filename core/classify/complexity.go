package classify

import (
	"math"
	"regexp"
)

// Complexity bounds.
const (
	MinComplexity = 1
	MaxComplexity = 5
)

// Divisors of the complexity formula.
const (
	controlPerPoint = 15
	declsPerPoint   = 8
	dataPerPoint    = 6
)

var (
	controlPattern = regexp.MustCompile(`\b(if|else|for|foreach|while|switch|case|catch|If|ElseIf|Else|For|Each|While|Select|Case|Catch)\b|&&|\|\||\bAndAlso\b|\bOrElse\b`)
	declPattern    = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|private|protected|internal|static|virtual|override|abstract|async|sealed|partial|readonly|Public|Private|Protected|Friend|Shared|Overrides|Overridable|MustOverride|ReadOnly|Partial)[ \t]+)+(?:class\b|interface\b|struct\b|enum\b|Class\b|Interface\b|Structure\b|Enum\b|Module\b|Sub\b|Function\b|Property\b|[\w<>\[\],.?]+[ \t]+\w+[ \t]*(?:\(|\{|=>|$))`)
	dataPattern    = regexp.MustCompile(`(?i)\b(select|insert|update|delete|exec|execute|ExecuteNonQuery|ExecuteReader|ExecuteScalar|SqlConnection|SqlCommand|SqlDataAdapter|DataSet|DataTable|TableAdapter|Fill)\b`)
)

// ComplexityCounts are the raw signals behind a complexity score.
type ComplexityCounts struct {
	Control      int
	Declarations int
	DataAccess   int
}

// CountComplexity counts control-flow keywords, declarations and data-access keywords.
func CountComplexity(content string) ComplexityCounts {
	code := stripComments(content)
	return ComplexityCounts{
		Control:      len(controlPattern.FindAllStringIndex(code, -1)),
		Declarations: len(declPattern.FindAllStringIndex(code, -1)),
		DataAccess:   len(dataPattern.FindAllStringIndex(code, -1)),
	}
}

// Score maps counts onto the 1-5 scale.
func (c ComplexityCounts) Score() int {
	points := float64(c.Control)/controlPerPoint + float64(c.Declarations)/declsPerPoint + float64(c.DataAccess)/dataPerPoint
	raw := MinComplexity + int(math.Floor(points))
	return max(MinComplexity, min(MaxComplexity, raw))
}

// Complexity estimates the complexity of a source text on a 1-5 scale.
func Complexity(content string) int {
	return CountComplexity(content).Score()
}
