//go:build windows

package supervisor

import "os"

// Process.Signal only supports os.Kill on Windows.
func terminate(p *os.Process) error {
	return p.Kill()
}
