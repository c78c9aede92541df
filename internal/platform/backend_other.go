//go:build !darwin && !windows && !linux

package platform

import (
	"fmt"
	"runtime"

	"github.com/eliziario/bioguard/internal/biometrics"
)

func newBackend(cfg Config) (biometrics.Backend, error) {
	return nil, fmt.Errorf("%w: %s", biometrics.ErrUnrecognizedPlatform, runtime.GOOS)
}
