package application

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

func TestListCoursesWithMeetingsPreservesOrder(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		courses: []domain.Course{
			{ID: 3, FullName: "Algorithms"},
			{ID: 1, FullName: "Databases"},
			{ID: 2, FullName: "Networks"},
		},
		meetingsByCourse: map[int64][]domain.MeetingLink{
			3: {{ID: 30, Name: "Lecture", URL: "https://lms.school.edu/mod/zoom/view.php?id=30"}},
			1: {{ID: 10, Name: "Lab", URL: "https://lms.school.edu/mod/zoom/view.php?id=10"}},
		},
	}
	svc := NewCourseService(lms, 0)

	results, err := svc.ListCoursesWithMeetings(context.Background(), "tok", "42")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, int64(3), results[0].Course.ID)
	assert.Equal(t, int64(1), results[1].Course.ID)
	assert.Equal(t, int64(2), results[2].Course.ID)

	assert.Len(t, results[0].Meetings, 1)
	assert.Len(t, results[1].Meetings, 1)
	assert.Empty(t, results[2].Meetings)
}

func TestListCoursesWithMeetingsEmptyEnrollment(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{}
	svc := NewCourseService(lms, 0)

	results, err := svc.ListCoursesWithMeetings(context.Background(), "tok", "42")
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Zero(t, atomic.LoadInt32(&lms.meetingCalls), "no content fetches for an empty enrollment")
}

func TestListCoursesWithMeetingsCourseListFailureIsFatal(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		coursesErr: &domain.AuthError{Op: "list courses", Reason: "invalid token"},
	}
	svc := NewCourseService(lms, 0)

	_, err := svc.ListCoursesWithMeetings(context.Background(), "tok", "42")
	require.True(t, domain.IsAuthError(err))
}

func TestListCoursesWithMeetingsIsolatesPerCourseFailures(t *testing.T) {
	t.Parallel()

	contentErr := &domain.NetworkError{Op: "list course contents", StatusCode: 500}
	lms := &fakeLMS{
		courses: []domain.Course{
			{ID: 1, FullName: "Databases"},
			{ID: 2, FullName: "Networks"},
		},
		meetingsByCourse: map[int64][]domain.MeetingLink{
			2: {{ID: 20, Name: "Seminar", URL: "https://lms.school.edu/mod/zoom/view.php?id=20"}},
		},
		meetingsErrs: map[int64]error{1: contentErr},
	}
	svc := NewCourseService(lms, 0)

	results, err := svc.ListCoursesWithMeetings(context.Background(), "tok", "42")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Err, contentErr)
	assert.Empty(t, results[0].Meetings)

	require.NoError(t, results[1].Err)
	assert.Len(t, results[1].Meetings, 1)
}

func TestListCoursesWithMeetingsFetchesConcurrently(t *testing.T) {
	t.Parallel()

	const courseCount = 3
	lms := &fakeLMS{
		courses: []domain.Course{
			{ID: 1}, {ID: 2}, {ID: 3},
		},
		meetingBarrier: make(chan struct{}),
	}
	svc := NewCourseService(lms, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.ListCoursesWithMeetings(context.Background(), "tok", "42")
	}()

	// Every worker must reach the barrier before any is released, which
	// only happens if the fetches run in parallel.
	for range courseCount {
		select {
		case <-lms.meetingBarrier:
		case <-time.After(time.Second):
			t.Fatal("content fetches did not run concurrently")
		}
	}
	close(lms.meetingBarrier)
	<-done

	assert.EqualValues(t, courseCount, atomic.LoadInt32(&lms.meetingCalls))
}
