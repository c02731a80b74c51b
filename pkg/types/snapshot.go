package types

// ScoreEntry is one computor/candidate row in the qubic.li score list.
type ScoreEntry struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	AdminScore float64 `json:"adminScore"`
	Epoch      int     `json:"epoch"`
	Updated    string  `json:"updated"`
	Checked    string  `json:"checked"`
	Identity   string  `json:"identity"`
	IsComputor bool    `json:"isComputor"`
}

// ScoreStatistic is a per-day score summary. The upstream returns the most
// recent day first.
type ScoreStatistic struct {
	Epoch        int     `json:"epoch"`
	DayDate      string  `json:"daydate"`
	MaxScore     float64 `json:"maxScore"`
	RealMinScore float64 `json:"realMinScore"`
	MinScore     float64 `json:"minScore"`
	AvgScore     float64 `json:"avgScore"`
}

// NetworkSnapshot is the payload of GET /Score/Get.
type NetworkSnapshot struct {
	Scores                     []ScoreEntry     `json:"scores"`
	MinScore                   float64          `json:"minScore"`
	MaxScore                   float64          `json:"maxScore"`
	AverageScore               float64          `json:"averageScore"`
	CreatedAt                  string           `json:"createdAt"`
	ScoreStatistics            []ScoreStatistic `json:"scoreStatistics"`
	EstimatedIts               float64          `json:"estimatedIts"`
	SolutionsPerHour           float64          `json:"solutionsPerHour"`
	SolutionsPerHourCalculated float64          `json:"solutionsPerHourCalculated"`
	Difficulty                 float64          `json:"difficulty"`
}

// CurrentEpoch returns the epoch of the newest score statistic.
// ok is false when the snapshot carries no statistics.
func (s *NetworkSnapshot) CurrentEpoch() (epoch int, ok bool) {
	if s == nil || len(s.ScoreStatistics) == 0 {
		return 0, false
	}
	return s.ScoreStatistics[0].Epoch, true
}

// TotalScore sums the score of every entry in Scores.
func (s *NetworkSnapshot) TotalScore() float64 {
	if s == nil {
		return 0
	}
	var total float64
	for _, e := range s.Scores {
		total += e.Score
	}
	return total
}
