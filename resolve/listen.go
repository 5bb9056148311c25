package resolve

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// listeningPattern matches the address line ASP.NET Core style hosts print
// once Kestrel is bound, e.g. "Now listening on: http://127.0.0.1:5123".
var listeningPattern = regexp.MustCompile(`(?i)now listening on:\s*(\S+)`)

// wildcardHosts are bind-all addresses that must be dialed via loopback.
var wildcardHosts = map[string]string{
	"0.0.0.0": "127.0.0.1",
	"::":      "[::1]",
	"+":       "127.0.0.1",
	"*":       "127.0.0.1",
}

// ParseListeningURL extracts and normalizes the bound address from a log
// line. The result holds only scheme, host and port; bracketed IPv6 hosts
// are preserved and wildcard hosts are rewritten to loopback.
func ParseListeningURL(line string) (string, bool) {
	m := listeningPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	raw := strings.TrimRight(m[1], ".,;")

	// "+" and "*" are not valid URL hosts.
	if scheme, rest, ok := strings.Cut(raw, "://"); ok && (strings.HasPrefix(rest, "+") || strings.HasPrefix(rest, "*")) {
		raw = scheme + "://0.0.0.0" + rest[1:]
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	host := u.Hostname()
	if replacement, ok := wildcardHosts[host]; ok {
		host = replacement
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	return strings.ToLower(u.Scheme) + "://" + host, true
}

// logBuffer retains the most recent output lines of a process.
// It is safe for concurrent use.
type logBuffer struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func newLogBuffer(size int) *logBuffer {
	if size <= 0 {
		size = DefaultLogLines
	}
	return &logBuffer{lines: make([]string, size)}
}

// Add appends a line, evicting the oldest once the buffer is full.
func (b *logBuffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[b.next] = line
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.full = true
	}
}

// Lines returns retained lines, oldest first.
func (b *logBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		return append([]string(nil), b.lines[:b.next]...)
	}
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.next:]...)
	return append(out, b.lines[:b.next]...)
}

// Tail formats retained lines for inclusion in an error message.
func (b *logBuffer) Tail() string {
	lines := b.Lines()
	if len(lines) == 0 {
		return "(no process output captured)"
	}
	var sb strings.Builder
	sb.WriteString("recent process output:")
	for _, line := range lines {
		sb.WriteString("\n  ")
		sb.WriteString(line)
	}
	return sb.String()
}
