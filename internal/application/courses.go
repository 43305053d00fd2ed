package application

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nlasala/campus-meet-cli/internal/domain"
	"github.com/nlasala/campus-meet-cli/internal/ports"
)

// DefaultContentTimeout bounds each per-course content fetch so one stalled
// backend call cannot hold the whole aggregation.
const DefaultContentTimeout = 15 * time.Second

// CourseService merges the course listing with the meeting links found in
// each course's content. Per-course failures are isolated: a failing course
// carries its error in the result row while siblings still render. The
// alternative (failing the whole aggregation on the first error) was
// rejected; resilience wins over strict consistency here.
type CourseService struct {
	lms            ports.LMSGateway
	contentTimeout time.Duration
}

func NewCourseService(lms ports.LMSGateway, contentTimeout time.Duration) *CourseService {
	if contentTimeout <= 0 {
		contentTimeout = DefaultContentTimeout
	}

	return &CourseService{lms: lms, contentTimeout: contentTimeout}
}

// ListCoursesWithMeetings fetches the enrolled courses once and fans out
// one content fetch per course. Results preserve the course-list order. An
// empty course list returns immediately with zero content fetches.
func (s *CourseService) ListCoursesWithMeetings(ctx context.Context, token, userID string) ([]domain.CourseMeetings, error) {
	courses, err := s.lms.ListCourses(ctx, token, userID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	results := make([]domain.CourseMeetings, len(courses))
	if len(courses) == 0 {
		return results, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i, course := range courses {
		group.Go(func() error {
			callCtx, cancel := context.WithTimeout(groupCtx, s.contentTimeout)
			defer cancel()

			meetings, err := s.lms.ListCourseMeetings(callCtx, token, course.ID)
			// Isolation policy: record the failure on this row only.
			results[i] = domain.CourseMeetings{Course: course, Meetings: meetings, Err: err}
			return nil
		})
	}

	// Workers never return errors; Wait is a pure join point.
	_ = group.Wait()

	return results, nil
}
