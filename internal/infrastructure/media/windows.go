package media

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// WmctrlLister lists visible windows via `wmctrl -lxG` (Linux). On
// platforms without wmctrl the lister reports no windows and the vision
// loop falls back to whole-screen OCR.
type WmctrlLister struct {
	bin string
}

func NewWmctrlLister() *WmctrlLister {
	if runtime.GOOS != "linux" {
		return &WmctrlLister{}
	}
	bin, err := exec.LookPath("wmctrl")
	if err != nil {
		return &WmctrlLister{}
	}
	return &WmctrlLister{bin: bin}
}

func (l *WmctrlLister) ListWindows(ctx context.Context) ([]Window, error) {
	if l.bin == "" {
		return nil, nil
	}
	cmd := exec.CommandContext(ctx, l.bin, "-lxG")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("wmctrl failed: %w", err)
	}
	return ParseWmctrlWindows(string(out)), nil
}

// ParseWmctrlWindows parses `wmctrl -lxG` output. Each line:
//
//	0x04000007 0 73 27 1846 1017 firefox.Firefox host Window Title
//
// columns: id, desktop, x, y, w, h, WM_CLASS, hostname, title...
func ParseWmctrlWindows(out string) []Window {
	var windows []Window
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 9 {
			continue
		}
		x, err1 := strconv.Atoi(fields[2])
		y, err2 := strconv.Atoi(fields[3])
		w, err3 := strconv.Atoi(fields[4])
		h, err4 := strconv.Atoi(fields[5])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		// WM_CLASS is "instance.Class"; the class part is the app name.
		app := fields[6]
		if i := strings.LastIndex(app, "."); i >= 0 && i < len(app)-1 {
			app = app[i+1:]
		}
		windows = append(windows, Window{
			AppName: app,
			Title:   strings.Join(fields[8:], " "),
			X:       x,
			Y:       y,
			Width:   w,
			Height:  h,
		})
	}
	return windows
}
