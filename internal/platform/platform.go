// Package platform answers which host capabilities termhost can rely on.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Platform is the detected host kind.
type Platform string

const (
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformFreeBSD Platform = "freebsd"
	PlatformWSL1    Platform = "wsl1"
	PlatformWSL2    Platform = "wsl2"
	PlatformUnknown Platform = "unknown"
)

var (
	detectOnce sync.Once
	detected   Platform

	// overridable in tests
	goos        = runtime.GOOS
	readFile    = os.ReadFile
	getenv      = os.Getenv
	statExists  = func(p string) bool { _, err := os.Stat(p); return err == nil }
	procVersion = "/proc/version"
	procMounts  = "/proc/mounts"
)

// Detect returns the host platform. The result is computed once.
func Detect() Platform {
	detectOnce.Do(func() { detected = detect() })
	return detected
}

func detect() Platform {
	switch goos {
	case "darwin":
		return PlatformMacOS
	case "freebsd":
		return PlatformFreeBSD
	case "linux":
		return detectLinux()
	default:
		return PlatformUnknown
	}
}

// detectLinux tells native Linux from WSL. WSL2 kernels report
// "microsoft-standard"; WSL1 reports "Microsoft" only.
func detectLinux() Platform {
	version, err := readFile(procVersion)
	v := ""
	if err == nil {
		v = string(version)
	}
	if getenv("WSL_DISTRO_NAME") == "" && !strings.Contains(strings.ToLower(v), "microsoft") {
		return PlatformLinux
	}
	switch {
	case strings.Contains(v, "microsoft-standard"):
		return PlatformWSL2
	case strings.Contains(v, "Microsoft"):
		return PlatformWSL1
	case statExists("/run/WSL"):
		return PlatformWSL2
	default:
		return PlatformWSL1
	}
}

// IsWSL reports whether the host is any WSL flavor.
func IsWSL() bool {
	p := Detect()
	return p == PlatformWSL1 || p == PlatformWSL2
}

// SupportsConsoleAttach reports whether a terminal can be made the console
// output target (TIOCCONS). WSL1 emulates ttys without it.
func SupportsConsoleAttach() bool {
	switch Detect() {
	case PlatformLinux, PlatformWSL2, PlatformMacOS, PlatformFreeBSD:
		return true
	default:
		return false
	}
}

func (p Platform) String() string {
	switch p {
	case PlatformMacOS:
		return "macOS"
	case PlatformLinux:
		return "Linux"
	case PlatformFreeBSD:
		return "FreeBSD"
	case PlatformWSL1:
		return "WSL1"
	case PlatformWSL2:
		return "WSL2"
	default:
		return "Unknown"
	}
}

// CheckFsnotifySupport returns a warning when path sits on a filesystem
// where change notifications are unreliable, or "" otherwise.
func CheckFsnotifySupport(path string) string {
	if goos != "linux" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	mounts, err := readFile(procMounts)
	if err != nil {
		return ""
	}

	// Longest mount point that prefixes the path wins.
	var mountPoint, fsType string
	for _, line := range strings.Split(string(mounts), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if strings.HasPrefix(abs, fields[1]) && len(fields[1]) > len(mountPoint) {
			mountPoint, fsType = fields[1], fields[2]
		}
	}

	switch {
	case fsType == "9p":
		return "config on 9p mount (WSL2 Windows filesystem): live reload may miss changes"
	case fsType == "nfs" || fsType == "nfs4":
		return "config on NFS mount: live reload may miss changes"
	case fsType == "cifs" || fsType == "smbfs":
		return "config on CIFS/SMB mount: live reload may miss changes"
	case strings.HasPrefix(fsType, "fuse.sshfs"):
		return "config on SSHFS mount: live reload may miss changes"
	}
	return ""
}
