package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"cine/internal/config"
	"cine/internal/ipc"
)

// commandContext carries the state shared by every subcommand: lazily loaded
// configuration plus the socket and output flags from the root command.
type commandContext struct {
	socketFlag *string
	configFlag *string
	jsonFlag   *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(socketFlag, configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{socketFlag: socketFlag, configFlag: configFlag, jsonFlag: jsonFlag}
}

// ensureConfig loads the configuration once per process and prepares its
// directories. Later calls return the cached result.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(c.loadConfig)
	return c.config, c.configErr
}

func (c *commandContext) loadConfig() {
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, resolvedPath, exists, err := config.Load(path)
	if err == nil {
		err = cfg.EnsureDirectories()
	}
	if err != nil {
		c.configErr = err
		return
	}
	c.config = cfg
	c.configPath = resolvedPath
	c.configExists = exists
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// socketPath resolves the daemon socket: explicit flag first, then the
// configured path, then the default under the user's data directory.
func (c *commandContext) socketPath() string {
	if c.socketFlag != nil {
		if socket := strings.TrimSpace(*c.socketFlag); socket != "" {
			return socket
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.SocketPath()
	}
	logDir, err := config.ExpandPath("~/.local/share/cine/logs")
	if err != nil {
		return filepath.Join(os.TempDir(), "cine.sock")
	}
	return filepath.Join(logDir, "cine.sock")
}

// withClient dials the daemon and hands the connection to fn, closing it
// afterwards.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return wrapDialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: no socket at %s (start one with `cine start`)", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: %s refused the connection; the daemon may have crashed", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

// daemonUnreachable reports dial failures that mean no daemon is listening,
// as opposed to a present daemon misbehaving.
func daemonUnreachable(err error) bool {
	return errors.Is(err, syscall.ENOENT) ||
		os.IsNotExist(err) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// shouldSkipConfig reports whether cmd or an ancestor opted out of config
// loading via the skipConfigLoad annotation.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for node := cmd; node != nil; node = node.Parent() {
		if node.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
