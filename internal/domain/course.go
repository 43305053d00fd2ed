package domain

import "strings"

// Course is one LMS enrollment.
type Course struct {
	ID        int64
	FullName  string
	ShortName string
}

// MeetingLink is a conferencing reference found inside course content.
type MeetingLink struct {
	ID   int64
	Name string
	URL  string
}

// The LMS routes meeting activities through view.php; substituting the
// loadmeeting.php handler makes the link open the meeting directly. This is
// a fixed backend routing convention, not a general URL rewrite.
const (
	meetingViewSegment = "view.php?id="
	meetingLoadSegment = "loadmeeting.php?id="
)

// DirectURL returns the direct-load variant of the stored join URL.
func (m MeetingLink) DirectURL() string {
	return strings.Replace(m.URL, meetingViewSegment, meetingLoadSegment, 1)
}

// CourseMeetings pairs a course with the meeting links discovered in its
// content. Err is set when the per-course content fetch failed; siblings are
// unaffected.
type CourseMeetings struct {
	Course   Course
	Meetings []MeetingLink
	Err      error
}
