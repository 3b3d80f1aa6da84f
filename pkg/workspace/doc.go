// Package workspace manages per-run scratch directories.
//
// Every run gets its own directory named <job>-<build>-<run8> under the
// workspace root (the user cache dir by default), exposed to stages as the
// WORKSPACE environment variable. Stage copies declared input files into
// the directory and writes a SHA-256 manifest (checksums.txt) alongside
// them, so a pushed bundle always carries its own integrity record.
// Cleanup removes the whole directory and is safe to call more than once;
// the runner invokes it from the always-run post stage.
package workspace
