package safety

import "strings"

// The built-in critical list. It is compiled in, cannot be edited at
// runtime, and resolves to Protected regardless of any rule or safety level.

// criticalRoots are filesystem roots protected as exact matches only:
// cleanup inside them can be legitimate, removing them never is.
var criticalRoots = []string{
	"/",
	"/etc",
	"/home",
	"/media",
	"/mnt",
	"/opt",
	"/root",
	"/srv",
	"/tmp",
	"/usr",
	"/var",
}

// criticalSubtrees are protected in full: the root and everything under it.
var criticalSubtrees = []string{
	"/bin",
	"/boot",
	"/dev",
	"/lib",
	"/lib32",
	"/lib64",
	"/proc",
	"/run",
	"/sbin",
	"/sys",
}

// criticalServices keep the machine reachable and bootable.
var criticalServices = []string{
	"cron",
	"dbus",
	"NetworkManager",
	"ssh",
	"sshd",
	"systemd-journald",
	"systemd-logind",
	"systemd-networkd",
	"systemd-resolved",
	"systemd-udevd",
}

// criticalPackages are the packages a recovery would need.
var criticalPackages = []string{
	"apt",
	"bash",
	"coreutils",
	"dash",
	"dpkg",
	"grub-common",
	"libc6",
	"login",
	"passwd",
	"sudo",
	"systemd",
	"ubuntu-minimal",
	"util-linux",
}

// criticalMatch reports whether a target hits the built-in critical list,
// and if so why. Service names are compared with their unit suffix stripped.
func criticalMatch(kind TargetKind, target string) (string, bool) {
	switch kind {
	case KindFile, KindDirectory:
		clean := strings.TrimSuffix(target, "/")
		if clean == "" {
			clean = "/"
		}
		for _, root := range criticalRoots {
			if clean == root {
				return "built-in critical path " + root, true
			}
		}
		for _, sub := range criticalSubtrees {
			if clean == sub || strings.HasPrefix(clean, sub+"/") {
				return "built-in critical subtree " + sub, true
			}
		}
	case KindService:
		name := strings.TrimSuffix(target, ".service")
		for _, svc := range criticalServices {
			if name == svc {
				return "built-in critical service " + svc, true
			}
		}
	case KindPackage:
		for _, pkg := range criticalPackages {
			if target == pkg {
				return "built-in critical package " + pkg, true
			}
		}
	}
	return "", false
}
