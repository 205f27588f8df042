package safety

// PackageManager abstracts the host's package manager (apt/dpkg in
// production). InstalledVersion is a read-only query; Remove and Install
// mutate.
type PackageManager interface {
	// InstalledVersion returns the installed version of a package, or ""
	// when the package is not installed.
	InstalledVersion(name string) (string, error)

	// Remove removes an installed package.
	Remove(name string) error

	// Install installs a package. When version is non-empty, that exact
	// version is requested.
	Install(name, version string) error
}
