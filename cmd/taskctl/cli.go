package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kbukum/gotasks/client"
	"github.com/kbukum/gotasks/config"
	"github.com/kbukum/gotasks/logger"
)

// settings are read from TASKCTL config files and the environment
// (IDENTITY_URL, TASK_URL, TIMEOUT, TOKEN_FILE) before flags apply.
type settings struct {
	client.Config `yaml:",inline" mapstructure:",squash"`
	Debug         bool `yaml:"debug" mapstructure:"debug"`
}

type session struct {
	api *client.API
	in  *bufio.Reader
	out io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, s *session, args []string) error
}

func commands() map[string]*command {
	list := []*command{
		{"login", "Sign in and save the session", runLogin},
		{"logout", "Forget the saved session", runLogout},
		{"register", "Create an account", runRegister},
		{"check", "Check username or email availability", runCheck},
		{"whoami", "Show the signed-in user", runWhoami},
		{"tasks", "Manage tasks (list, create, get, update, delete)", runTasks},
		{"version", "Print the client version", runVersion},
	}
	m := make(map[string]*command, len(list))
	for _, c := range list {
		m[c.name] = c
	}
	return m
}

// run parses global flags, builds the API client and dispatches args[0].
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cfg settings
	if err := config.LoadConfig("taskctl", &cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	cfg.ApplyDefaults()

	fs := flag.NewFlagSet("taskctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.IdentityURL, "identity-url", cfg.IdentityURL, "identity service base URL")
	fs.StringVar(&cfg.TaskURL, "task-url", cfg.TaskURL, "task service base URL")
	fs.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "session file (default: user config dir)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "log requests to stderr")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		usage(stdout, fs)
		return 0
	}
	cmd, ok := commands()[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command: %s\n", rest[0])
		return 2
	}

	s, err := newSession(cfg, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := cmd.run(ctx, s, rest[1:]); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, client.ErrSessionExpired) {
			fmt.Fprintln(stderr, "Run `taskctl login` to sign in again.")
		}
		return 1
	}
	return 0
}

func newSession(cfg settings, stdin io.Reader, stdout, stderr io.Writer) (*session, error) {
	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		cfg.TokenFile = filepath.Join(dir, "gotasks", "session.json")
	}
	store, err := client.NewTokenStore(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	if cfg.Debug {
		log = logger.NewWithWriter(&logger.Config{Level: "debug", Format: "console"}, "taskctl", stderr)
	}
	api, err := client.NewAPI(cfg.Config, store, log)
	if err != nil {
		return nil, err
	}
	return &session{api: api, in: bufio.NewReader(stdin), out: stdout}, nil
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: taskctl [flags] <command> [args]\n\nCommands:\n")
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, cmds[name].summary)
	}
	fmt.Fprintf(w, "\nFlags:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// prompt reads one line from stdin when value is empty.
func (s *session) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(s.out, "%s: ", label)
	line, err := s.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return line, nil
}
