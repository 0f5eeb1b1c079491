package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"classflow/backend/internal/model"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, role string, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			result = append(result, *u)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes map[string]*model.Class
	seq     int
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.Class)}
}

func (m *mockClassRepo) Create(_ context.Context, class *model.Class) error {
	if class.ClassID == "" {
		m.seq++
		class.ClassID = fmt.Sprintf("class-%d", m.seq)
	}
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) GetWithEnrollments(ctx context.Context, id string) (*model.Class, error) {
	return m.GetByID(ctx, id)
}

func (m *mockClassRepo) List(_ context.Context, onlyActive bool) ([]model.Class, error) {
	var result []model.Class
	for _, c := range m.classes {
		if onlyActive && !c.Active {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockClassRepo) ListActiveOverlapping(_ context.Context, from, to string) ([]model.Class, error) {
	var result []model.Class
	for _, c := range m.classes {
		if !c.Active {
			continue
		}
		if c.StartDate.Format("2006-01-02") > to {
			continue
		}
		if c.EndDate != nil && c.EndDate.Format("2006-01-02") < from {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockClassRepo) Update(_ context.Context, class *model.Class) error {
	m.classes[class.ClassID] = class
	class.Version++
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.classes, id)
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	enrollments map[string]*model.Enrollment
	seq         int
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrollments: make(map[string]*model.Enrollment)}
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	if e.EnrollmentID == "" {
		m.seq++
		e.EnrollmentID = fmt.Sprintf("enr-%d", m.seq)
	}
	m.enrollments[e.EnrollmentID] = e
	return nil
}

func (m *mockEnrollmentRepo) GetByClassAndStudent(_ context.Context, classID, studentID string) (*model.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.ClassID == classID && e.StudentID == studentID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListByClass(_ context.Context, classID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.ClassID == classID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) Delete(_ context.Context, id string) error {
	delete(m.enrollments, id)
	return nil
}

// ── Mock ExceptionRepository ──

type mockExceptionRepo struct {
	exceptions map[string]*model.ClassException
	seq        int
}

func newMockExceptionRepo() *mockExceptionRepo {
	return &mockExceptionRepo{exceptions: make(map[string]*model.ClassException)}
}

func (m *mockExceptionRepo) Create(_ context.Context, e *model.ClassException) error {
	if e.ExceptionID == "" {
		m.seq++
		e.ExceptionID = fmt.Sprintf("exc-%d", m.seq)
	}
	m.exceptions[e.ExceptionID] = e
	return nil
}

func (m *mockExceptionRepo) GetByID(_ context.Context, id string) (*model.ClassException, error) {
	if e, ok := m.exceptions[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExceptionRepo) GetByClassAndDate(_ context.Context, classID string, date time.Time) (*model.ClassException, error) {
	key := date.Format("2006-01-02")
	for _, e := range m.exceptions {
		if e.ClassID == classID && e.Date.Format("2006-01-02") == key {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExceptionRepo) ListByClass(_ context.Context, classID string) ([]model.ClassException, error) {
	var result []model.ClassException
	for _, e := range m.exceptions {
		if classID == "" || e.ClassID == classID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExceptionRepo) ListInRange(_ context.Context, classID string, from, to time.Time) ([]model.ClassException, error) {
	lo, hi := from.Format("2006-01-02"), to.Format("2006-01-02")
	var result []model.ClassException
	for _, e := range m.exceptions {
		if classID != "" && e.ClassID != classID {
			continue
		}
		d := e.Date.Format("2006-01-02")
		if d >= lo && d <= hi {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExceptionRepo) Delete(_ context.Context, id string) error {
	delete(m.exceptions, id)
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	// key: classID + ":" + studentID + ":" + date
	records map[string]*model.AttendanceRecord
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func attendanceKey(r *model.AttendanceRecord) string {
	return r.ClassID + ":" + r.StudentID + ":" + r.Date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) ListByClassAndDate(_ context.Context, classID string, date time.Time) ([]model.AttendanceRecord, error) {
	key := date.Format("2006-01-02")
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.ClassID == classID && r.Date.Format("2006-01-02") == key {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByStudent(_ context.Context, classID, studentID string, from, to *time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.StudentID != studentID {
			continue
		}
		if classID != "" && r.ClassID != classID {
			continue
		}
		if from != nil && r.Date.Before(*from) {
			continue
		}
		if to != nil && r.Date.After(*to) {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByClassInRange(_ context.Context, classID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.ClassID != classID || r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockAttendanceRepo) BulkUpsert(_ context.Context, records []model.AttendanceRecord) error {
	for i := range records {
		r := records[i]
		m.records[attendanceKey(&r)] = &r
	}
	return nil
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	events map[string]*model.Event
	seq    int
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) Create(_ context.Context, e *model.Event) error {
	if e.EventID == "" {
		m.seq++
		e.EventID = fmt.Sprintf("evt-%d", m.seq)
	}
	m.events[e.EventID] = e
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) ListInRange(_ context.Context, from, to time.Time) ([]model.Event, error) {
	var result []model.Event
	for _, e := range m.events {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockEventRepo) Delete(_ context.Context, id string) error {
	delete(m.events, id)
	return nil
}
