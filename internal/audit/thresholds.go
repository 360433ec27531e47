package audit

// Thresholds are the numeric limits used by the rules. The defaults are
// empirical; override them per engine with WithThresholds.
type Thresholds struct {
	MaxHedgeRatio           float64
	MaxFillerDensity        float64
	MaxOpeningFillerDensity float64
	OpeningWords            int
	MinSubjectRatio         float64
	SubjectWindowWords      int
	MaxPassiveRatio         float64
	MinHeadingAlignment     float64
	MaxFutureRatio          float64
	MaxPronounDensity       float64
	DefinitionWindow        int
	ShortSentenceWords      int
	MaxRepetitiveRun        int
	MaxSignaturePhrases     int
	MaxSectionShare         float64
	MinTypeTokenRatio       float64
	MinWordsForTTR          int
	MinIntroCoverage        float64
	MaxAnchorRepeats        int
	MinLinkContextWords     int
	MaxIntroLinks           int
	MinProseRatio           float64
	MaxProseRatio           float64
	ListDefinitionWindow    int
	MinTableColumns         int
	MaxSentenceWords        int
	MaxLongSentences        int
	MinTripleCoverage       float64
	MinBridgeRate           float64
	MinMainSections         int
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxHedgeRatio:           0.1,
		MaxFillerDensity:        0.03,
		MaxOpeningFillerDensity: 0.03,
		OpeningWords:            100,
		MinSubjectRatio:         0.3,
		SubjectWindowWords:      4,
		MaxPassiveRatio:         0.2,
		MinHeadingAlignment:     0.5,
		MaxFutureRatio:          0.1,
		MaxPronounDensity:       0.04,
		DefinitionWindow:        400,
		ShortSentenceWords:      10,
		MaxRepetitiveRun:        2,
		MaxSignaturePhrases:     0,
		MaxSectionShare:         0.5,
		MinTypeTokenRatio:       0.35,
		MinWordsForTTR:          100,
		MinIntroCoverage:        1.0,
		MaxAnchorRepeats:        3,
		MinLinkContextWords:     6,
		MaxIntroLinks:           1,
		MinProseRatio:           0.6,
		MaxProseRatio:           0.8,
		ListDefinitionWindow:    200,
		MinTableColumns:         3,
		MaxSentenceWords:        30,
		MaxLongSentences:        2,
		MinTripleCoverage:       0.5,
		MinBridgeRate:           0.5,
		MinMainSections:         3,
	}
}
