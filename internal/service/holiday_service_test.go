package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
)

func TestHolidayServiceCreateListDelete(t *testing.T) {
	svc := NewHolidayService(newStubHolidayRepo(), nil, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateHolidayRequest{Name: " Diwali ", Date: "2024-11-01"})
	require.NoError(t, err)
	assert.Equal(t, "Diwali", created.Name)
	_, err = svc.Create(ctx, CreateHolidayRequest{Name: "Republic Day", Date: "2024-01-26"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateHolidayRequest{Name: "Duplicate", Date: "2024-11-01"})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrDuplicateHoliday))

	_, err = svc.Create(ctx, CreateHolidayRequest{Name: "Bad", Date: "1 Nov"})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))

	holidays, err := svc.List(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "Republic Day", holidays[0].Name)

	require.NoError(t, svc.Delete(ctx, created.ID))
	err = svc.Delete(ctx, created.ID)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))
}

func TestHolidayServiceWorkingDays(t *testing.T) {
	svc := NewHolidayService(newStubHolidayRepo(models.Holiday{Name: "Holi", Date: mustDate("2024-03-25")}), nil, zap.NewNop())

	days := []models.Date{mustDate("2024-03-24"), mustDate("2024-03-25"), mustDate("2024-03-26")}
	working, err := svc.WorkingDays(context.Background(), days)
	require.NoError(t, err)
	assert.Equal(t, []models.Date{mustDate("2024-03-24"), mustDate("2024-03-26")}, working)

	empty, err := svc.WorkingDays(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
