package zoom

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/nlasala/campus-meet-cli/internal/ports"
)

const deepLinkBase = "zoommtg://zoom.us"

type openFunc func(ctx context.Context, target string) error

// Launcher hands meetings to the installed conferencing client through its
// zoommtg deep-link scheme. The client owns the meeting protocol; this
// adapter only builds the link and asks the OS to open it.
type Launcher struct {
	open openFunc
}

var _ ports.MeetingLauncher = (*Launcher)(nil)

func NewLauncher() *Launcher {
	return &Launcher{open: openWithOS}
}

func (l *Launcher) Join(ctx context.Context, req ports.JoinRequest) error {
	if req.MeetingNumber == "" {
		return errors.New("meeting number is required")
	}

	values := url.Values{}
	values.Set("action", "join")
	values.Set("confno", req.MeetingNumber)
	if req.Password != "" {
		values.Set("pwd", req.Password)
	}
	if req.UserName != "" {
		values.Set("uname", req.UserName)
	}

	if err := l.open(ctx, deepLinkBase+"/join?"+values.Encode()); err != nil {
		return fmt.Errorf("join meeting %s: %w", req.MeetingNumber, err)
	}
	return nil
}

func (l *Launcher) Start(ctx context.Context, req ports.StartRequest) error {
	if req.MeetingNumber == "" {
		return errors.New("meeting number is required")
	}
	if req.AccessToken == "" {
		return errors.New("host access token is required")
	}

	values := url.Values{}
	values.Set("action", "start")
	values.Set("confno", req.MeetingNumber)
	values.Set("zak", req.AccessToken)
	if req.UserName != "" {
		values.Set("uname", req.UserName)
	}

	if err := l.open(ctx, deepLinkBase+"/start?"+values.Encode()); err != nil {
		return fmt.Errorf("start meeting %s: %w", req.MeetingNumber, err)
	}
	return nil
}

func openWithOS(ctx context.Context, target string) error {
	var name string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		name = "xdg-open"
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("locate %s: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, path, append(args, target)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if len(output) > 0 {
			return fmt.Errorf("open %s: %w: %s", name, err, output)
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	return nil
}
