package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kingrea/addressapp/internal/app"
	"github.com/kingrea/addressapp/internal/filter"
	"github.com/kingrea/addressapp/internal/person"
)

const usage = `Usage: addressapp [command] [flags]

Without a command the interactive address book starts.

Commands:
  list    [--file path] [--where expr | --search name]
                                         print the contacts
  stats   [--file path]                  print birthdays per month
  add     --file path [field flags]      append a contact and save
  remove  --file path --index n          delete the contact at n (0-based) and save
  path    [--clear]                      show or forget the remembered file
  dateformat [pattern]                   show or change the birthday display pattern
`

// runCommand executes one subcommand and returns the process exit code.
func runCommand(env *environment, args []string, stdout, stderr io.Writer) int {
	name, rest := args[0], args[1:]
	var err error
	switch name {
	case "list":
		err = cmdList(env, rest, stdout, stderr)
	case "stats":
		err = cmdStats(env, rest, stdout, stderr)
	case "add":
		err = cmdAdd(env, rest, stdout, stderr)
	case "remove":
		err = cmdRemove(env, rest, stdout, stderr)
	case "path":
		err = cmdPath(env, rest, stdout, stderr)
	case "dateformat":
		err = cmdDateFormat(env, rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return 2
	}
	if err == nil {
		return 0
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	var usageErr usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(stderr, usageErr.Error())
		return 2
	}
	printNotification(stderr, app.NotificationFor(err))
	return 1
}

type usageError string

func (e usageError) Error() string { return string(e) }

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// openBook loads file, or the remembered file when file is empty. With
// neither, the in-memory book (samples or empty) is used.
func openBook(env *environment, file string) error {
	file = strings.TrimSpace(file)
	if file != "" {
		return env.ctrl.Open(file)
	}
	return env.ctrl.Startup()
}

func cmdList(env *environment, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("list", stderr)
	file := fs.String("file", "", "address file (defaults to the remembered file)")
	where := fs.String("where", "", `filter expression, e.g. city == "Bern"`)
	search := fs.String("search", "", "fuzzy match on the full name, best match first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var sel filter.Selector
	switch {
	case *where != "" && *search != "":
		return usageError("list: --where and --search are exclusive")
	case *search != "":
		sel = filter.NewSearch(*search)
	default:
		f, err := filter.Compile(*where)
		if err != nil {
			return usageError(err.Error())
		}
		sel = f
	}
	if err := openBook(env, *file); err != nil {
		return err
	}
	records := env.ctrl.List().Snapshot()
	idx, err := sel.Indexes(records)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFIRST NAME\tLAST NAME\tSTREET\tPOSTAL CODE\tCITY\tBIRTHDAY")
	for _, i := range idx {
		p := records[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i, p.FirstName, p.LastName, p.Street, p.PostalCode, p.City,
			p.Birthday.Format(env.ctrl.DateFormat()))
	}
	return tw.Flush()
}

func cmdStats(env *environment, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("stats", stderr)
	file := fs.String("file", "", "address file (defaults to the remembered file)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := openBook(env, *file); err != nil {
		return err
	}
	counts := env.ctrl.BirthdayStats()
	for _, b := range counts.Buckets() {
		fmt.Fprintf(stdout, "%s %3d %s\n", b.Label, b.Count, strings.Repeat("#", b.Count))
	}
	return nil
}

func cmdAdd(env *environment, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("add", stderr)
	file := fs.String("file", "", "address file to append to (created when missing with --new)")
	create := fs.Bool("new", false, "start from an empty book instead of loading --file")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	street := fs.String("street", "", "street")
	postal := fs.Int("postal", 0, "postal code")
	city := fs.String("city", "", "city")
	birthday := fs.String("birthday", "", "birthday ("+env.ctrl.DateFormat()+" or yyyy-MM-dd)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" {
		return usageError("add: --file is required")
	}
	date, err := person.ParseUserDate(env.ctrl.DateFormat(), *birthday)
	if err != nil {
		return usageError(fmt.Sprintf("add: %v", err))
	}
	if *create {
		env.ctrl.List().Clear()
	} else if err := env.ctrl.Open(*file); err != nil {
		return err
	}
	draft := &person.Person{
		FirstName:  *first,
		LastName:   *last,
		Street:     *street,
		PostalCode: *postal,
		City:       *city,
		Birthday:   date,
	}
	env.ctrl.FinishNew(draft, app.DialogOK)
	if err := env.ctrl.SaveAs(*file); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added %s (%d person(s) in %s)\n", draft.FullName(), env.ctrl.List().Len(), *file)
	return nil
}

func cmdRemove(env *environment, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("remove", stderr)
	file := fs.String("file", "", "address file")
	index := fs.Int("index", -1, "position of the contact (see list)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" {
		return usageError("remove: --file is required")
	}
	if err := env.ctrl.Open(*file); err != nil {
		return err
	}
	if err := env.ctrl.DeletePerson(*index); err != nil {
		return err
	}
	if err := env.ctrl.SaveAs(*file); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Removed entry %d (%d person(s) left)\n", *index, env.ctrl.List().Len())
	return nil
}

func cmdPath(env *environment, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("path", stderr)
	forget := fs.Bool("clear", false, "forget the remembered file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *forget {
		if err := env.ctrl.Store().SetLastPath(""); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Remembered file cleared")
		return nil
	}
	path, ok := env.ctrl.FilePath()
	if !ok {
		fmt.Fprintln(stdout, "No remembered file")
		return nil
	}
	fmt.Fprintln(stdout, path)
	return nil
}

func cmdDateFormat(env *environment, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("dateformat", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stdout, env.cfg.DateFormat())
		return nil
	}
	if err := env.cfg.SetDateFormat(fs.Arg(0)); err != nil {
		return usageError(err.Error())
	}
	fmt.Fprintf(stdout, "Birthdays are now shown as %s\n", env.cfg.DateFormat())
	return nil
}
