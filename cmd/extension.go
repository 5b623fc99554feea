package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Global flags are forwarded to extensions as environment variables.
const (
	EnvEnvFile = "RHF_ENV_FILE"
	EnvVerbose = "RHF_VERBOSE"
)

// RunExtension attempts to find and execute an external rhf-<subcommand>
// binary on the PATH. It returns (true, exitCode) when an extension was found
// and executed, and (false, 0) otherwise.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "rhf-" + subcommand
	path, err := exec.LookPath(name)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvEnvFile+"="+*envFile,
		EnvVerbose+"="+strconv.FormatBool(*Verbose),
	)

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
