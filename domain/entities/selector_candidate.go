package entities

import "sort"

// Strategy identifies how a selector candidate was derived
type Strategy string

const (
	StrategyTestID        Strategy = "test-id"
	StrategyRole          Strategy = "role"
	StrategyLabel         Strategy = "label"
	StrategyPlaceholder   Strategy = "placeholder"
	StrategyAltText       Strategy = "alt-text"
	StrategyTitle         Strategy = "title"
	StrategyText          Strategy = "text"
	StrategyAriaLabel     Strategy = "aria-label"
	StrategyName          Strategy = "name"
	StrategyID            Strategy = "id"
	StrategyCSSClass      Strategy = "css-class"
	StrategyCSSAttr       Strategy = "css-attr"
	StrategyXPathAttr     Strategy = "xpath-attr"
	StrategyXPathText     Strategy = "xpath-text"
	StrategyXPathContains Strategy = "xpath-contains"
	StrategyXPathAxes     Strategy = "xpath-axes"
	StrategyXPathFull     Strategy = "xpath-full"
	StrategyCSSPath       Strategy = "css-path"
	StrategyRaw           Strategy = "raw"
)

// SelectorCandidate is one proposed way to address an element
type SelectorCandidate struct {
	Strategy   Strategy `json:"strategy"`
	Expression string   `json:"expression"`
	Confidence float64  `json:"confidence"`
}

// RankCandidates deduplicates candidates by expression, keeping the first
// occurrence, and stable-sorts them by descending confidence.
func RankCandidates(candidates []SelectorCandidate) []SelectorCandidate {
	seen := make(map[string]bool, len(candidates))
	ranked := make([]SelectorCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Expression == "" || seen[c.Expression] {
			continue
		}
		seen[c.Expression] = true
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	return ranked
}
