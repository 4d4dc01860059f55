package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"

	"audiodesc/internal/api"
	"audiodesc/internal/config"
)

type commandContext struct {
	configFlag *string
	serverFlag *string
	tokenFlag  *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, serverFlag, tokenFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
		tokenFlag:  tokenFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// client resolves the daemon address and token. Flags win; the config file
// is only consulted for values the flags leave empty.
func (c *commandContext) client() (*api.Client, error) {
	server := flagValue(c.serverFlag)
	token := flagValue(c.tokenFlag)
	if server == "" || token == "" {
		cfg, err := c.ensureConfig()
		switch {
		case err == nil:
			if server == "" {
				server = serverFromBind(cfg.Server.Bind)
			}
			if token == "" {
				token = cfg.Server.APIToken
			}
		case server == "":
			return nil, fmt.Errorf("load config: %w (or pass --server)", err)
		}
	}
	if token == "" {
		token = strings.TrimSpace(os.Getenv("AUDIODESC_API_TOKEN"))
	}
	return api.NewClient(server, api.WithToken(token)), nil
}

func flagValue(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

// serverFromBind turns a listen address into a dialable URL. Wildcard hosts
// are dialled on loopback.
func serverFromBind(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return api.DefaultServer
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func wrapClientError(err error, server string) error {
	var urlErr *url.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: %s refused the connection; start it with `audiodescd`", server)
	case errors.As(err, &urlErr) && urlErr.Timeout():
		return fmt.Errorf("connect to daemon: %s timed out", server)
	default:
		return err
	}
}
