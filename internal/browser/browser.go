// Package browser opens the sign-in page in the user's web browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// SupportedBrowser represents a supported browser type
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// AllSupportedBrowsers returns a list of all supported browsers
func AllSupportedBrowsers() []SupportedBrowser {
	return []SupportedBrowser{
		BrowserChrome,
		BrowserChromium,
		BrowserFirefox,
		BrowserEdge,
		BrowserOpera,
	}
}

// String returns the string representation of the browser
func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser string into a SupportedBrowser
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla", "mozilla-firefox":
		return BrowserFirefox, nil
	case "edge", "microsoft-edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// executable names per OS; darwin uses application names for open -a
var executables = map[string]map[SupportedBrowser]string{
	"linux": {
		BrowserChrome:   "google-chrome",
		BrowserChromium: "chromium",
		BrowserFirefox:  "firefox",
		BrowserEdge:     "microsoft-edge",
		BrowserOpera:    "opera",
	},
	"darwin": {
		BrowserChrome:   "Google Chrome",
		BrowserChromium: "Chromium",
		BrowserFirefox:  "Firefox",
		BrowserEdge:     "Microsoft Edge",
		BrowserOpera:    "Opera",
	},
	"windows": {
		BrowserChrome:   "chrome",
		BrowserChromium: "chromium",
		BrowserFirefox:  "firefox",
		BrowserEdge:     "msedge",
		BrowserOpera:    "opera",
	},
}

// Command returns the command that opens url in browser on goos
func Command(goos string, browser SupportedBrowser, url string) (*exec.Cmd, error) {
	if browser == BrowserAuto || browser == "" {
		switch goos {
		case "windows":
			return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
		case "darwin":
			return exec.Command("open", url), nil
		case "linux", "freebsd", "openbsd", "netbsd":
			return exec.Command("xdg-open", url), nil
		default:
			return nil, fmt.Errorf("unsupported platform: %s", goos)
		}
	}

	names, ok := executables[goos]
	if !ok {
		names = executables["linux"]
	}
	name, ok := names[browser]
	if !ok {
		return nil, fmt.Errorf("unsupported browser: %s", browser)
	}

	switch goos {
	case "darwin":
		return exec.Command("open", "-a", name, url), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", `""`, name, url), nil
	default:
		return exec.Command(name, url), nil
	}
}

// Open starts browser with url and returns without waiting for it
func Open(browser SupportedBrowser, url string) error {
	cmd, err := Command(runtime.GOOS, browser, url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", browser, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
