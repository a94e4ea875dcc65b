package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (schedule.Service, *memory.ShiftRepository) {
	t.Helper()
	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	for _, e := range []employee.Employee{
		{ID: "emp-1", CompanyID: "co-1", EmploymentStatus: employee.EmploymentStatusActive},
		{ID: "emp-2", CompanyID: "co-1", EmploymentStatus: employee.EmploymentStatusActive},
		{ID: "emp-9", CompanyID: "co-2", EmploymentStatus: employee.EmploymentStatusActive},
	} {
		require.NoError(t, employees.Save(context.Background(), e))
	}
	shifts := memory.NewShiftRepository(store)
	svc := NewScheduleService(store, shifts, memory.NewVersionRepository(store), employees, policy.Static(policy.Default()))
	return svc, shifts
}

func at(d, h int) time.Time {
	return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC)
}

func dates(t *testing.T, from, to string) timerange.Dates {
	t.Helper()
	d, err := timerange.ParseDates(from, to)
	require.NoError(t, err)
	return d
}

func TestCreateShift_BumpsTouchedDays(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	week := dates(t, "2026-03-02", "2026-03-08")

	v0, err := svc.RangeVersion(ctx, "co-1", week)
	require.NoError(t, err)
	assert.Zero(t, v0)

	// overnight shift touches the 3rd and the 4th
	s, err := svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(3, 22), EndTime: at(4, 6)})
	require.NoError(t, err)
	assert.Equal(t, schedule.ShiftStatusDraft, s.Status)

	v1, err := svc.RangeVersion(ctx, "co-1", week)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v1)

	other, err := svc.RangeVersion(ctx, "co-1", dates(t, "2026-03-09", "2026-03-15"))
	require.NoError(t, err)
	assert.Zero(t, other, "days outside the mutation keep their version")

	otherCompany, err := svc.RangeVersion(ctx, "co-2", week)
	require.NoError(t, err)
	assert.Zero(t, otherCompany)
}

func TestCreateShift_Rejections(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(2, 9), EndTime: at(2, 17)})
	require.NoError(t, err)

	_, err = svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(2, 16), EndTime: at(2, 20)})
	assert.ErrorIs(t, err, schedule.ErrOverlappingShift)

	_, err = svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(2, 17), EndTime: at(2, 20)})
	assert.NoError(t, err, "touching shifts do not overlap")

	_, err = svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-9", StartTime: at(5, 9), EndTime: at(5, 17)})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(6, 17), EndTime: at(6, 9)})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(6, 0), EndTime: at(7, 1)})
	assert.ErrorAs(t, err, &verrs)
}

func TestUpdateShift_ReturnsToDraft(t *testing.T) {
	svc, shifts := newService(t)
	ctx := context.Background()
	week := dates(t, "2026-03-02", "2026-03-08")

	s, err := svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(2, 9), EndTime: at(2, 17)})
	require.NoError(t, err)
	n, err := shifts.PublishDrafts(ctx, "co-1", week.In(time.UTC), at(1, 12))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	end := at(2, 18)
	updated, err := svc.UpdateShift(ctx, schedule.UpdateShiftRequest{ID: s.ID, CompanyID: "co-1", EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, schedule.ShiftStatusDraft, updated.Status)
	assert.Nil(t, updated.PublishedAt)
	assert.Equal(t, end, updated.EndTime)

	v, err := svc.RangeVersion(ctx, "co-1", week)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	// moving to another employee's slot conflicts
	_, err = svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-2", StartTime: at(3, 9), EndTime: at(3, 17)})
	require.NoError(t, err)
	emp2 := "emp-2"
	start, moved := at(3, 10), at(3, 18)
	_, err = svc.UpdateShift(ctx, schedule.UpdateShiftRequest{ID: s.ID, CompanyID: "co-1", EmployeeID: &emp2, StartTime: &start, EndTime: &moved})
	assert.ErrorIs(t, err, schedule.ErrOverlappingShift)

	_, err = svc.UpdateShift(ctx, schedule.UpdateShiftRequest{ID: s.ID, CompanyID: "co-2", EndTime: &end})
	assert.ErrorIs(t, err, schedule.ErrShiftNotFound)
}

func TestDeleteShift(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	week := dates(t, "2026-03-02", "2026-03-08")

	s, err := svc.CreateShift(ctx, schedule.CreateShiftRequest{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(2, 9), EndTime: at(2, 17)})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteShift(ctx, s.ID, "co-1"))

	v, err := svc.RangeVersion(ctx, "co-1", week)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v, "delete bumps the version like any other mutation")

	assert.ErrorIs(t, svc.DeleteShift(ctx, s.ID, "co-1"), schedule.ErrShiftNotFound)

	list, err := svc.ListShifts(ctx, schedule.ShiftFilter{CompanyID: "co-1", StartDate: "2026-03-02", EndDate: "2026-03-08"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListShifts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, req := range []schedule.CreateShiftRequest{
		{CompanyID: "co-1", EmployeeID: "emp-2", StartTime: at(3, 9), EndTime: at(3, 17)},
		{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(2, 9), EndTime: at(2, 17)},
		{CompanyID: "co-1", EmployeeID: "emp-1", StartTime: at(10, 9), EndTime: at(10, 17)},
		{CompanyID: "co-2", EmployeeID: "emp-9", StartTime: at(2, 9), EndTime: at(2, 17)},
	} {
		_, err := svc.CreateShift(ctx, req)
		require.NoError(t, err)
	}

	all, err := svc.ListShifts(ctx, schedule.ShiftFilter{CompanyID: "co-1", StartDate: "2026-03-02", EndDate: "2026-03-08"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].StartTime.Before(all[1].StartTime))

	mine, err := svc.ListShifts(ctx, schedule.ShiftFilter{CompanyID: "co-1", EmployeeID: "emp-1", StartDate: "2026-03-01", EndDate: "2026-03-31"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.ListShifts(ctx, schedule.ShiftFilter{CompanyID: "co-1", StartDate: "03/02/2026", EndDate: "2026-03-08"})
	assert.Error(t, err)
}
