package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/repository"
)

type stubEmployeeRepo struct {
	mu        sync.Mutex
	items     map[string]*models.Employee
	seq       int64
	createErr error
}

func newStubEmployeeRepo(employees ...models.Employee) *stubEmployeeRepo {
	repo := &stubEmployeeRepo{items: map[string]*models.Employee{}}
	for i := range employees {
		e := employees[i]
		if e.Status == "" {
			e.Status = models.EmployeeStatusActive
		}
		repo.items[e.EmployeeID] = &e
		repo.seq++
	}
	return repo
}

func (r *stubEmployeeRepo) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Employee, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, len(out), nil
}

func (r *stubEmployeeRepo) FindByCode(ctx context.Context, code string) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.items[code]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubEmployeeRepo) ExistsByEmail(ctx context.Context, email string, excludeCode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, e := range r.items {
		if e.Email == email && code != excludeCode {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubEmployeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	employee.ID = fmt.Sprintf("id-%d", r.seq)
	employee.EmployeeID = models.FormatEmployeeCode(r.seq)
	cp := *employee
	r.items[employee.EmployeeID] = &cp
	return nil
}

func (r *stubEmployeeRepo) Update(ctx context.Context, employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *employee
	r.items[employee.EmployeeID] = &cp
	return nil
}

func (r *stubEmployeeRepo) SetStatus(ctx context.Context, code string, status models.EmployeeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[code]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	return nil
}

func (r *stubEmployeeRepo) ListActiveCodes(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.items))
	for code, e := range r.items {
		if e.IsActive() {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// stubAttendanceRepo mimics the unique (employee, date) key and the row lock
// with a single mutex.
type stubAttendanceRepo struct {
	mu      sync.Mutex
	rows    map[string]*models.AttendanceRecord
	seq     int
	listErr error
}

func newStubAttendanceRepo() *stubAttendanceRepo {
	return &stubAttendanceRepo{rows: map[string]*models.AttendanceRecord{}}
}

func dayKey(employeeID string, date models.Date) string {
	return employeeID + "|" + date.String()
}

func (r *stubAttendanceRepo) put(rec models.AttendanceRecord) *models.AttendanceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		r.seq++
		rec.ID = fmt.Sprintf("att-%d", r.seq)
	}
	r.rows[dayKey(rec.EmployeeID, rec.Date)] = &rec
	return &rec
}

func (r *stubAttendanceRepo) get(employeeID string, date models.Date) *models.AttendanceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.rows[dayKey(employeeID, date)]; ok {
		cp := *rec
		return &cp
	}
	return nil
}

func (r *stubAttendanceRepo) CheckIn(ctx context.Context, employeeID string, date models.Date, checkIn string, location *string) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(employeeID, date)
	rec, ok := r.rows[key]
	if ok && rec.HasCheckIn() {
		return nil, sql.ErrNoRows
	}
	if !ok {
		r.seq++
		rec = &models.AttendanceRecord{ID: fmt.Sprintf("att-%d", r.seq), EmployeeID: employeeID, Date: date}
		r.rows[key] = rec
	}
	in := checkIn
	rec.CheckInTime = &in
	rec.Status = models.AttendanceStatusCheckedIn
	if location != nil {
		rec.Location = location
	}
	cp := *rec
	return &cp, nil
}

func (r *stubAttendanceRepo) update(rec *models.AttendanceRecord, mutate func(*models.AttendanceRecord) error) (*models.AttendanceRecord, error) {
	cp := *rec
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	*rec = cp
	return &cp, nil
}

func (r *stubAttendanceRepo) FindByDay(ctx context.Context, employeeID string, date models.Date) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[dayKey(employeeID, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (r *stubAttendanceRepo) UpdateDay(ctx context.Context, employeeID string, date models.Date, mutate func(*models.AttendanceRecord) error) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[dayKey(employeeID, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r.update(rec, mutate)
}

func (r *stubAttendanceRepo) UpdateByID(ctx context.Context, id string, mutate func(*models.AttendanceRecord) error) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.ID == id {
			return r.update(rec, mutate)
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(record.EmployeeID, record.Date)
	if _, ok := r.rows[key]; ok {
		return fmt.Errorf("create attendance: %w", repository.ErrUniqueViolation)
	}
	r.seq++
	record.ID = fmt.Sprintf("att-%d", r.seq)
	cp := *record
	r.rows[key] = &cp
	return nil
}

func (r *stubAttendanceRepo) ListRange(ctx context.Context, employeeID string, from, to models.Date) ([]models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AttendanceRecord, 0)
	for _, rec := range r.rows {
		if rec.EmployeeID == employeeID && !rec.Date.Before(from.Time) && rec.Date.Before(to.Time) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (r *stubAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceEntry, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AttendanceEntry, 0)
	for _, rec := range r.rows {
		if filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		if filter.DateFrom != nil && rec.Date.Before(filter.DateFrom.Time) {
			continue
		}
		if filter.DateTo != nil && rec.Date.After(filter.DateTo.Time) {
			continue
		}
		out = append(out, models.AttendanceEntry{AttendanceRecord: *rec})
	}
	return out, len(out), nil
}

func (r *stubAttendanceRepo) MarkDays(ctx context.Context, employeeID string, days []models.Date, status models.AttendanceStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	written := 0
	for _, day := range days {
		key := dayKey(employeeID, day)
		if rec, ok := r.rows[key]; ok {
			if rec.HasCheckIn() {
				continue
			}
			rec.Status = status
		} else {
			r.seq++
			r.rows[key] = &models.AttendanceRecord{ID: fmt.Sprintf("att-%d", r.seq), EmployeeID: employeeID, Date: day, Status: status}
		}
		written++
	}
	return written, nil
}

func (r *stubAttendanceRepo) Totals(ctx context.Context, employeeID string, from, to models.Date) (models.AttendanceTotals, error) {
	records, _ := r.ListRange(ctx, employeeID, from, to)
	var totals models.AttendanceTotals
	for _, rec := range records {
		totals.TotalDays++
		if rec.Status == models.AttendanceStatusPresent {
			totals.PresentDays++
		}
		if rec.Status.IsLeave() {
			totals.LeaveDays++
		}
		totals.OvertimeHours += rec.OvertimeHours
	}
	return totals, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) ObserveAttendanceEvent(event string, status models.AttendanceStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event+":"+string(status))
}

func mustDate(raw string) models.Date {
	d, err := models.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedClock(raw string) func() time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
