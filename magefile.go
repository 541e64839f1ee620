//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildSweep)
	fmt.Println("Compilation finished")
	return nil
}

// BuildSweep compiles bin/sweep. HDF5 is found through CGO_CFLAGS and
// CGO_LDFLAGS.
func BuildSweep() error {
	fmt.Println("Building sweep executable...")
	return goCommand("build", "-o", "./bin/sweep", "./sweep")
}

func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./...")
}

func Clean() error {
	fmt.Println("Removing bin/")
	return os.RemoveAll("bin")
}

func goCommand(args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
