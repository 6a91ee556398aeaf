package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"path/filepath"
)

// ErrAlreadyRunning indicates another long-running process owns the data
// directory.
var ErrAlreadyRunning = errors.New("another tempo process is using this data directory")

// InstanceGuard holds the single-instance lock for one data directory.
type InstanceGuard struct {
	listener net.Listener
	address  string
}

// AcquireSingleInstance binds a localhost port derived from the absolute data
// directory, so two processes never tick against the same snapshot while
// separate data directories stay independent.
func AcquireSingleInstance(dataDir string) (*InstanceGuard, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	address := fmt.Sprintf("127.0.0.1:%d", lockPort(absDir))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, address)
	}
	return &InstanceGuard{listener: listener, address: address}, nil
}

// Release frees the lock. It is safe on a nil guard.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	return guard.listener.Close()
}

// Address returns the bound lock address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func lockPort(key string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
