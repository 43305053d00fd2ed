package courses

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

type RenderOptions struct {
	// ShowURLs prints the resolvable join URL under each meeting name.
	ShowURLs bool
}

func renderView(rows []domain.CourseMeetings, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Enrolled Courses"),
		s.header.Render(fmt.Sprintf("courses: %d", len(rows))),
	}

	if len(rows) == 0 {
		lines = append(lines, s.empty.Render("No course enrollments found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, row := range rows {
		lines = append(lines, s.section.Render(renderCourse(row, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCourse(row domain.CourseMeetings, opts RenderOptions, s styles) string {
	parts := []string{
		s.course.Render(courseTitle(row.Course, s)),
	}

	switch {
	case row.Err != nil:
		parts = append(parts, s.warning.Render("  meetings unavailable: ")+s.meeting.Render(row.Err.Error()))
	case len(row.Meetings) == 0:
		parts = append(parts, s.empty.Render("  no meetings"))
	default:
		for _, meeting := range row.Meetings {
			parts = append(parts, renderMeeting(meeting, opts, s)...)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderMeeting(meeting domain.MeetingLink, opts RenderOptions, s styles) []string {
	lines := []string{s.meeting.Render("  * " + meeting.Name)}
	if opts.ShowURLs {
		lines = append(lines, s.meetingURL.Render("    "+meeting.DirectURL()))
	}
	return lines
}

func courseTitle(course domain.Course, s styles) string {
	if course.ShortName == "" {
		return course.FullName
	}
	return course.FullName + " " + s.courseShort.Render("("+course.ShortName+")")
}
