// Package launcher hands article links to the desktop's URL opener.
package launcher

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/validation"
)

var errNoOpener = errors.New("no application configured to open URLs")

type Launcher struct {
	opener string
	start  func(name string, args ...string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	opener := strings.TrimSpace(cfg.Media.DefaultOpener)
	if opener == "" {
		opener = config.Default().Media.DefaultOpener
	}
	return &Launcher{opener: opener, start: startDetached}
}

// Open launches the configured opener for rawURL. Only absolute http and
// https links are accepted and the opener is executed directly, never
// through a shell.
func (l *Launcher) Open(rawURL string) error {
	u, err := validation.BrowsableURL(rawURL)
	if err != nil {
		return err
	}
	name, args, ok := l.command(u.String())
	if !ok {
		return errNoOpener
	}
	debuglog.WithFields(map[string]any{"opener": name}).Debugf("opening %s", u.String())
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

func (l *Launcher) command(target string) (string, []string, bool) {
	fields := strings.Fields(l.opener)
	if len(fields) == 0 {
		return "", nil, false
	}
	name, args := fields[0], fields[1:]
	// rundll32 needs the protocol handler entry point; "cmd /c start" would
	// hand the URL to a shell.
	if strings.EqualFold(strings.TrimSuffix(filepath.Base(name), ".exe"), "rundll32") && len(args) == 0 {
		args = []string{"url.dll,FileProtocolHandler"}
	}
	return name, append(args, target), true
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
