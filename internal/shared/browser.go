package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// DeepLink joins the web client's base URL with an encoded navigation query.
func DeepLink(webURL, query string) (string, error) {
	u, err := url.Parse(strings.TrimRight(webURL, "/") + "/")
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: web_url %q", ErrInvalidConfig, webURL)
	}
	u.RawQuery = query
	return u.String(), nil
}

// browserCommand returns the command that opens target in the default browser for the current platform.
func browserCommand(target string) (*exec.Cmd, error) {
	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(target string) error {
	cmd, err := browserCommand(target)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
