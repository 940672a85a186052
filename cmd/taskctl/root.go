package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskapp/internal/logging"
	"taskapp/pkg/client"
)

// cli holds the per-invocation session shared by all commands.
type cli struct {
	httpClient *http.Client
	v          *viper.Viper

	store *client.IdentityStore
	ctrl  *client.Controller

	mu       sync.Mutex
	reported []error
}

func newCLI(httpClient *http.Client) *cli {
	return &cli{httpClient: httpClient, v: viper.New()}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "taskctl")
	}
	return ".taskctl"
}

func (c *cli) rootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage your tasks from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(stdout, stderr)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().String("server", "http://localhost:3000", "task server base URL")
	root.PersistentFlags().String("state-dir", defaultStateDir(), "directory holding the saved session")
	root.PersistentFlags().Bool("verbose", false, "log debug output to stderr")
	_ = c.v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = c.v.BindPFlag("state_dir", root.PersistentFlags().Lookup("state-dir"))
	_ = c.v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	c.v.SetEnvPrefix("TASKCTL")
	c.v.AutomaticEnv()

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.tasksCmd(),
	)
	return root
}

// execute runs one command line. Errors already shown through a notification
// are not printed a second time.
func (c *cli) execute(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := c.rootCmd(stdout, stderr)
	root.SetIn(stdin)
	root.SetArgs(args)

	err := root.Execute()
	if c.ctrl != nil || c.store != nil {
		_ = c.close()
	}
	if err != nil && !c.wasReported(err) {
		fmt.Fprintln(stderr, "error:", err)
	}
	return err
}

func (c *cli) open(stdout, stderr io.Writer) error {
	level := "warn"
	if c.v.GetBool("verbose") {
		level = "debug"
	}
	logger := logging.New(stderr, level, "text")

	store, err := client.OpenIdentityStore(c.v.GetString("state_dir"), logger)
	if err != nil {
		return err
	}
	api := client.New(c.v.GetString("server"), c.httpClient)
	ctrl, err := client.NewController(api, store, c.notifier(stdout, stderr), logger)
	if err != nil {
		_ = store.Close()
		return err
	}
	c.store, c.ctrl = store, ctrl
	return nil
}

func (c *cli) close() error {
	c.ctrl = nil
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func (c *cli) notifier(stdout, stderr io.Writer) client.Notifier {
	return func(n client.Notification) {
		if n.Level == client.NotifyError {
			c.mu.Lock()
			c.reported = append(c.reported, n.Err)
			c.mu.Unlock()
			fmt.Fprintf(stderr, "error: %s: %s\n", n.Title, n.Message)
			return
		}
		if n.Message == "" {
			fmt.Fprintln(stdout, n.Title)
			return
		}
		fmt.Fprintf(stdout, "%s: %s\n", n.Title, n.Message)
	}
}

func (c *cli) wasReported(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.reported {
		if r != nil && errors.Is(err, r) {
			return true
		}
	}
	return false
}

// requireLogin rejects task commands before any request is made.
func (c *cli) requireLogin() (client.Identity, error) {
	id, ok := c.ctrl.Identity()
	if !ok {
		return client.Identity{}, fmt.Errorf("%w: run 'taskctl login' first", client.ErrNotLoggedIn)
	}
	return id, nil
}
