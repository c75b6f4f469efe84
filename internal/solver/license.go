package solver

import "os"

// LicenseAvailable reproduces SelectSolver's ILOG_LICENSE_FILE gate: a
// commercial backend is eligible only if envVar is set to a path that
// exists on disk. Generalized here to accept any env var / directory pair
// so the same check serves CPLEX, LINDO-style backends.
func LicenseAvailable(envVar string) bool {
	path := os.Getenv(envVar)
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
