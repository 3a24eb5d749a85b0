package lcu

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// ErrNotRunning is returned when no running client could be located.
var ErrNotRunning = errors.New("league client is not running")

// Credentials are the connection details the client publishes for its local API.
type Credentials struct {
	ProcessName string
	PID         int
	Port        int
	Password    string
	Protocol    string
}

// BaseURL returns the local API root.
func (c *Credentials) BaseURL() string {
	return fmt.Sprintf("%s://127.0.0.1:%d", c.Protocol, c.Port)
}

// ParseLockfile parses lockfile contents of the form
// "name:pid:port:password:protocol".
func ParseLockfile(contents string) (*Credentials, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(contents), "\n")
	if line == "" {
		return nil, errors.New("lockfile is empty")
	}

	parts := strings.Split(strings.TrimSpace(line), ":")
	if len(parts) < 5 {
		return nil, fmt.Errorf("invalid lockfile format: expected 5 fields, got %d", len(parts))
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to parse process id: %w", err)
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", parts[2])
	}

	return &Credentials{
		ProcessName: parts[0],
		PID:         pid,
		Port:        port,
		Password:    parts[3],
		Protocol:    strings.TrimSpace(parts[4]),
	}, nil
}

// ReadLockfile reads and parses the lockfile at path.
func ReadLockfile(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLockfile(string(data))
}

// DefaultLockfilePaths lists where the client usually writes its lockfile.
// installDir, when set, is tried first.
func DefaultLockfilePaths(installDir string) []string {
	var paths []string
	if installDir != "" {
		paths = append(paths, filepath.Join(installDir, "lockfile"))
	}

	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "LOCALAPPDATA"} {
			if dir := os.Getenv(env); dir != "" {
				paths = append(paths, filepath.Join(dir, "Riot Games", "League of Legends", "lockfile"))
			}
		}
		paths = append(paths, `C:\Riot Games\League of Legends\lockfile`)
	case "darwin":
		paths = append(paths,
			"/Applications/League of Legends.app/Contents/LoL/lockfile",
			"/Applications/League of Legends.app/Contents/LoL/LeagueClient.app/Contents/Lockups/lockfile",
		)
		if home != "" {
			paths = append(paths, filepath.Join(home, "Library", "Application Support", "League of Legends", "lockfile"))
		}
	default:
		if home != "" {
			paths = append(paths,
				filepath.Join(home, ".wine", "drive_c", "Riot Games", "League of Legends", "lockfile"),
				filepath.Join(home, ".local", "share", "Riot Games", "League of Legends", "lockfile"),
			)
		}
	}
	return paths
}

var (
	appPortPattern   = regexp.MustCompile(`--app-port=([0-9]+)`)
	authTokenPattern = regexp.MustCompile(`--remoting-auth-token=([\w-]+)`)
	appPIDPattern    = regexp.MustCompile(`--app-pid=([0-9]+)`)
)

// ParseCommandLine extracts credentials from the client UX process arguments.
func ParseCommandLine(cmdline string) (*Credentials, error) {
	port := appPortPattern.FindStringSubmatch(cmdline)
	if port == nil {
		return nil, errors.New("could not find --app-port in process command line")
	}
	token := authTokenPattern.FindStringSubmatch(cmdline)
	if token == nil {
		return nil, errors.New("could not find --remoting-auth-token in process command line")
	}

	p, err := strconv.Atoi(port[1])
	if err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("invalid port %q", port[1])
	}

	creds := &Credentials{
		ProcessName: "LeagueClientUx",
		Port:        p,
		Password:    token[1],
		Protocol:    "https",
	}
	if m := appPIDPattern.FindStringSubmatch(cmdline); m != nil {
		creds.PID, _ = strconv.Atoi(m[1])
	}
	return creds, nil
}

// processCommandLine returns the command line of the running client UX process.
func processCommandLine(ctx context.Context) (string, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "wmic", "PROCESS", "WHERE", "name='LeagueClientUx.exe'", "GET", "commandline")
	} else {
		cmd = exec.CommandContext(ctx, "ps", "-A", "-o", "args=")
	}

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to list processes: %w", err)
	}

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "CommandLine" {
			continue
		}
		if strings.Contains(line, "LeagueClientUx") || strings.Contains(line, "--remoting-auth-token=") {
			return line, nil
		}
	}
	return "", ErrNotRunning
}
