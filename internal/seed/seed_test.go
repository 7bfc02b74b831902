package seed

import (
	"strings"
	"testing"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	analysts []*domain.Analyst
}

func (s *fakeStore) CreateAnalyst(analyst *domain.Analyst) error {
	analyst.ID = int64(len(s.analysts) + 1)
	s.analysts = append(s.analysts, analyst)
	return nil
}

func TestImportAnalysts(t *testing.T) {
	data := "姓名,班次,区域,技能\n" +
		"王伟,早班,1,SIEM|EDR\n" +
		"李静,EVENING,,\n"

	s := &fakeStore{}
	cnt, err := ImportAnalysts(s, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, cnt)

	require.Len(t, s.analysts, 2)
	assert.Equal(t, "王伟", s.analysts[0].FullName)
	assert.Equal(t, domain.ShiftMorning, s.analysts[0].ShiftType)
	require.NotNil(t, s.analysts[0].RegionID)
	assert.Equal(t, int64(1), *s.analysts[0].RegionID)
	assert.Equal(t, []string{"SIEM", "EDR"}, s.analysts[0].Skills)
	assert.NotEmpty(t, s.analysts[0].Username)

	assert.Equal(t, domain.ShiftEvening, s.analysts[1].ShiftType)
	assert.Nil(t, s.analysts[1].RegionID)
	assert.True(t, s.analysts[1].IsActive)
}

func TestImportAnalystsRejectsBadRows(t *testing.T) {
	_, err := ImportAnalysts(&fakeStore{}, strings.NewReader("姓名,区域\n王伟,1\n"))
	assert.Error(t, err)

	s := &fakeStore{}
	cnt, err := ImportAnalysts(s, strings.NewReader("姓名,班次\n王伟,早班\n李静,夜班\n"))
	assert.Error(t, err)
	assert.Equal(t, 1, cnt)
}
