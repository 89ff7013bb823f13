// Package config resolves a schedule.Options from defaults, an optional
// .env file, and command-line flags, in increasing priority.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sarchlab/stripesched/internal/schedule"
	"github.com/sarchlab/stripesched/internal/stripe"
)

const defaultAlignmentBytes = 4

// Flags carries the command-line overrides a caller collected from cobra
// flags. A zero value for any field means "not set on the command line";
// Load falls through to the .env value or the built-in default instead.
type Flags struct {
	MemLoc    string
	MemKiB    uint64
	Alignment uint64
	XferLoc   string
}

// resolved is the plain, unexported view Load builds up before handing the
// result to schedule.MakeBuilder.
type resolved struct {
	memLoc    string
	memKiB    uint64
	alignment uint64
	xferLoc   string
}

// Load resolves a schedule.Options, applying, in increasing priority:
// built-in defaults, an optional .env file at envPath (missing is not an
// error), and flags. envPath may be empty, in which case godotenv's default
// search (a ".env" file in the working directory) is used.
func Load(envPath string, flags Flags) (schedule.Options, error) {
	r := resolved{alignment: defaultAlignmentBytes}

	if err := loadDotenv(envPath); err != nil {
		return schedule.Options{}, err
	}

	if v, ok := os.LookupEnv("STRIPESCHED_MEM_LOC"); ok {
		r.memLoc = v
	}
	if v, ok := os.LookupEnv("STRIPESCHED_XFER_LOC"); ok {
		r.xferLoc = v
	}
	if v, ok := os.LookupEnv("STRIPESCHED_MEM_KIB"); ok {
		kib, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return schedule.Options{}, err
		}
		r.memKiB = kib
	}
	if v, ok := os.LookupEnv("STRIPESCHED_ALIGNMENT"); ok {
		alignment, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return schedule.Options{}, err
		}
		r.alignment = alignment
	}

	if flags.MemLoc != "" {
		r.memLoc = flags.MemLoc
	}
	if flags.XferLoc != "" {
		r.xferLoc = flags.XferLoc
	}
	if flags.MemKiB != 0 {
		r.memKiB = flags.MemKiB
	}
	if flags.Alignment != 0 {
		r.alignment = flags.Alignment
	}

	opts := schedule.MakeBuilder().
		WithMemLoc(stripe.Location{Name: r.memLoc}).
		WithMemKiB(r.memKiB).
		WithAlignment(r.alignment).
		WithXferLoc(stripe.Location{Name: r.xferLoc}).
		Build()

	return opts, nil
}

// loadDotenv loads envPath into the process environment, tolerating a
// missing file the way a purely-optional configuration layer should.
func loadDotenv(envPath string) error {
	path := envPath
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(path)
}
