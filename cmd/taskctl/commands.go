package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kbukum/gotasks/client"
	"github.com/kbukum/gotasks/version"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("taskctl "+name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runLogin(ctx context.Context, s *session, args []string) error {
	fs := newFlags("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if *username, err = s.prompt("Username", *username); err != nil {
		return err
	}
	if *password, err = s.prompt("Password", *password); err != nil {
		return err
	}

	sess, err := s.api.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Signed in as %s (id %d)\n", sess.Username, sess.UserID)
	return nil
}

func runLogout(_ context.Context, s *session, _ []string) error {
	if err := s.api.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Signed out")
	return nil
}

func runRegister(ctx context.Context, s *session, args []string) error {
	fs := newFlags("register")
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if *username, err = s.prompt("Username", *username); err != nil {
		return err
	}
	if *email, err = s.prompt("Email", *email); err != nil {
		return err
	}
	if *password, err = s.prompt("Password", *password); err != nil {
		return err
	}

	u, err := s.api.Register(ctx, *username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Registered %s (id %d). Run `taskctl login` to sign in.\n", u.Username, u.ID)
	return nil
}

func runCheck(ctx context.Context, s *session, args []string) error {
	if len(args) != 2 || (args[0] != "username" && args[0] != "email") {
		return errors.New("usage: taskctl check username|email <value>")
	}
	var (
		free bool
		err  error
	)
	if args[0] == "username" {
		free, err = s.api.UsernameAvailable(ctx, args[1])
	} else {
		free, err = s.api.EmailAvailable(ctx, args[1])
	}
	if err != nil {
		return err
	}
	if free {
		fmt.Fprintf(s.out, "%s is available\n", args[1])
	} else {
		fmt.Fprintf(s.out, "%s is taken\n", args[1])
	}
	return nil
}

func runWhoami(ctx context.Context, s *session, _ []string) error {
	if _, ok := s.api.Store().Current(); !ok {
		return errors.New("not signed in")
	}
	u, err := s.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s <%s> (id %d)\n", u.Username, u.Email, u.ID)
	return nil
}

func runVersion(_ context.Context, s *session, _ []string) error {
	fmt.Fprintf(s.out, "taskctl %s\n", version.Get())
	return nil
}

func runTasks(ctx context.Context, s *session, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: taskctl tasks list|create|get|update|delete [args]")
	}
	switch args[0] {
	case "list":
		return runTasksList(ctx, s, args[1:])
	case "create":
		return runTasksCreate(ctx, s, args[1:])
	case "get":
		return runTasksGet(ctx, s, args[1:])
	case "update":
		return runTasksUpdate(ctx, s, args[1:])
	case "delete":
		return runTasksDelete(ctx, s, args[1:])
	default:
		return fmt.Errorf("unknown tasks subcommand: %s", args[0])
	}
}

func runTasksList(ctx context.Context, s *session, args []string) error {
	fs := newFlags("tasks list")
	status := fs.String("status", "", "filter by status (todo, in_progress, done)")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tasks, err := s.api.ListTasks(ctx, *status)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(s.out, tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(s.out, "No tasks")
		return nil
	}
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Status, t.Title)
	}
	return w.Flush()
}

func runTasksCreate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("tasks create")
	var in client.NewTask
	fs.StringVar(&in.Title, "title", "", "title")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.Status, "status", "", "initial status (default todo)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if in.Title == "" && fs.NArg() > 0 {
		in.Title = fs.Arg(0)
	}
	t, err := s.api.CreateTask(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Created task %d\n", t.ID)
	return nil
}

func runTasksGet(ctx context.Context, s *session, args []string) error {
	id, err := taskID(args)
	if err != nil {
		return err
	}
	t, err := s.api.GetTask(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(s.out, t)
}

func runTasksUpdate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("tasks update")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	status := fs.String("status", "", "new status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := taskID(fs.Args())
	if err != nil {
		return err
	}

	var in client.TaskUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			in.Title = title
		case "description":
			in.Description = description
		case "status":
			in.Status = status
		}
	})
	if in.Title == nil && in.Description == nil && in.Status == nil {
		return errors.New("nothing to update: pass -title, -description or -status")
	}

	t, err := s.api.UpdateTask(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Updated task %d (%s)\n", t.ID, t.Status)
	return nil
}

func runTasksDelete(ctx context.Context, s *session, args []string) error {
	id, err := taskID(args)
	if err != nil {
		return err
	}
	if err := s.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Deleted task %d\n", id)
	return nil
}

func taskID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one task id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", args[0])
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
