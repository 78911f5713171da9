package services

import (
	"encoding/json"
	"errors"
	"os/exec"

	"github.com/clickfrenzy/sessioncore/pkg/logx"
	"github.com/clickfrenzy/sessioncore/schemas"
	"go.uber.org/zap"
)

var SpawnError = errors.New("could not spawn process")

// ProcessHandle monitors one spawned process. Done yields the Wait
// result exactly once.
type ProcessHandle struct {
	Pid  int
	Done <-chan error

	cmd *exec.Cmd
}

func (handle *ProcessHandle) Kill() error {
	return handle.cmd.Process.Kill()
}

// LauncherService spawns the authoritative game process and client
// processes. It never retries a failed spawn; retry policy belongs to
// the external orchestrator.
type LauncherService struct{}

func NewLauncherService() LauncherService {
	return LauncherService{}
}

// LaunchGameProcess starts the game binary with the serialized
// initializer as its argument.
func (launcherService LauncherService) LaunchGameProcess(binary string, initializer schemas.SessionInitializer) (*ProcessHandle, error) {
	payload, err := json.Marshal(initializer)

	if err != nil {
		logx.Logger.Error(
			err.Error(),
			zap.String("desc", "could not serialize initializer"),
		)
		return nil, SpawnError
	}

	return launcherService.spawn(binary, "--initializer", string(payload))
}

// LaunchClientProcess starts a client binary with its connect-info
// bundle as an argument. The bundle is opaque here; it is generated once
// per client by the session service.
func (launcherService LauncherService) LaunchClientProcess(binary string, info schemas.ConnectInfo) (*ProcessHandle, error) {
	encoded, err := info.Encode()

	if err != nil {
		logx.Logger.Error(
			err.Error(),
			zap.String("desc", "could not serialize connect info"),
		)
		return nil, SpawnError
	}

	return launcherService.spawn(binary, "--connect", encoded)
}

func (launcherService LauncherService) spawn(binary string, args ...string) (*ProcessHandle, error) {
	cmd := exec.Command(binary, args...)

	if err := cmd.Start(); err != nil {
		logx.Logger.Error(
			err.Error(),
			zap.String("desc", "could not start process"),
			zap.String("binary", binary),
		)
		return nil, SpawnError
	}

	done := make(chan error, 1)

	go func() {
		err := cmd.Wait()

		if err != nil {
			logx.Logger.Error(
				err.Error(),
				zap.String("desc", "process exited with error"),
				zap.String("binary", binary),
			)
		} else {
			logx.Logger.Info(
				"process exited",
				zap.String("binary", binary),
			)
		}

		done <- err
	}()

	return &ProcessHandle{Pid: cmd.Process.Pid, Done: done, cmd: cmd}, nil
}
