package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearMonthPrevRollsOverYear(t *testing.T) {
	assert.Equal(t, YearMonth{Year: 2023, Month: 12}, YearMonth{Year: 2024, Month: 1}.Prev())
	assert.Equal(t, YearMonth{Year: 2024, Month: 2}, YearMonth{Year: 2024, Month: 3}.Prev())
}

func TestYearMonthLastDayHandlesLeapYears(t *testing.T) {
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), YearMonth{Year: 2024, Month: 2}.LastDay())
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), YearMonth{Year: 2023, Month: 2}.LastDay())
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), YearMonth{Year: 2023, Month: 12}.LastDay())
}

func TestYearMonthBeforeAndString(t *testing.T) {
	assert.True(t, YearMonth{Year: 2023, Month: 12}.Before(YearMonth{Year: 2024, Month: 1}))
	assert.False(t, YearMonth{Year: 2024, Month: 1}.Before(YearMonth{Year: 2024, Month: 1}))
	assert.Equal(t, "2024-03", YearMonth{Year: 2024, Month: 3}.String())
	assert.Equal(t, "March 2024", YearMonth{Year: 2024, Month: 3}.Label())
}
