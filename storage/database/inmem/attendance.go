package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateSession(_ context.Context, s attendance.Session) (attendance.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// same guarantee as the partial unique index on (lecturer_id) WHERE is_active
	for _, existing := range repo.db.sessions {
		if existing.LecturerID == s.LecturerID && existing.IsActive {
			return attendance.Session{}, attendance.ErrSessionExists
		}
	}

	s.ID = uuid.New().String()
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *attendanceRepository) GetSessionByID(_ context.Context, id string) (attendance.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (repo *attendanceRepository) GetActiveSessionByLecturer(_ context.Context, lecturerID string) (attendance.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.sessions {
		if s.LecturerID == lecturerID && s.IsActive {
			return *s, nil
		}
	}
	return attendance.Session{}, attendance.ErrNoActiveSession
}

func (repo *attendanceRepository) GetActiveSessionByCourse(_ context.Context, courseID string) (attendance.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var latest *attendance.Session
	for _, s := range repo.db.sessions {
		if s.CourseID == courseID && s.IsActive {
			if latest == nil || s.StartTime.After(latest.StartTime) {
				latest = s
			}
		}
	}
	if latest == nil {
		return attendance.Session{}, attendance.ErrNoActiveSession
	}
	return *latest, nil
}

func (repo *attendanceRepository) EndSession(_ context.Context, id string, endTime time.Time) (attendance.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.sessions[id]
	if !ok || !s.IsActive {
		return attendance.Session{}, attendance.ErrNoActiveSession
	}
	s.IsActive = false
	s.EndTime = endTime
	return *s, nil
}

func (repo *attendanceRepository) QuerySessionsByCourse(_ context.Context, courseID string) ([]attendance.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var sessions []attendance.Session
	for _, s := range repo.db.sessions {
		if s.CourseID == courseID {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartTime.Before(sessions[j].StartTime) })
	return sessions, nil
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, r attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.records {
		if existing.SessionID == r.SessionID && existing.StudentID == r.StudentID {
			return attendance.Record{}, attendance.ErrRecordExists
		}
	}

	r.ID = uuid.New().String()
	repo.db.records[r.ID] = &r
	return r, nil
}

func (repo *attendanceRepository) GetRecord(_ context.Context, sessionID, studentID string) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, r := range repo.db.records {
		if r.SessionID == sessionID && r.StudentID == studentID {
			return *r, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) CountRecordsBySession(_ context.Context, sessionID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, r := range repo.db.records {
		if r.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

func (repo *attendanceRepository) QueryRecordsByCourse(_ context.Context, courseID string) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var records []attendance.Record
	for _, r := range repo.db.records {
		if s, ok := repo.db.sessions[r.SessionID]; ok && s.CourseID == courseID {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	return records, nil
}
