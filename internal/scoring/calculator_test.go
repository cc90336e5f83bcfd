package scoring

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CalculatorTestSuite struct {
	suite.Suite
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorTestSuite))
}

// ============================================================================
// CalculateScore
// ============================================================================

func (s *CalculatorTestSuite) TestZeroCountersScoreZero() {
	s.Equal(0.0, CalculateScore(0, 0, 0, 0))
}

func (s *CalculatorTestSuite) TestLikesAndDislikesCountEqually() {
	s.Equal(5.0, CalculateScore(5, 0, 0, 0))
	s.Equal(5.0, CalculateScore(0, 5, 0, 0))
	s.Equal(10.0, CalculateScore(5, 5, 0, 0))
}

func (s *CalculatorTestSuite) TestCommentAndSaveWeights() {
	s.Equal(2.0, CalculateScore(0, 0, 0, 1))
	s.Equal(3.0, CalculateScore(0, 0, 1, 0))
}

func (s *CalculatorTestSuite) TestMixedCounters() {
	// 10 likes + 2 dislikes + 0 comments + 1 save*3 = 15
	s.Equal(15.0, CalculateScore(10, 2, 1, 0))
	// 7 + 1 + 3*2 + 2*3 = 20
	s.Equal(20.0, CalculateScore(7, 1, 2, 3))
}

// ============================================================================
// Trend
// ============================================================================

func (s *CalculatorTestSuite) TestTrendPositiveWhenAccelerating() {
	s.Positive(Trend(10, 4))
	s.InDelta(6.0, Trend(10, 4), 1e-9)
}

func (s *CalculatorTestSuite) TestTrendNegativeWhenCooling() {
	s.Negative(Trend(2, 8))
}

func (s *CalculatorTestSuite) TestTrendZeroWithoutHistory() {
	s.Zero(Trend(0, 0))
}
