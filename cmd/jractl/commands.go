package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jraweb/jraweb/app"
	"github.com/jraweb/jraweb/client"
	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/render"
	"github.com/jraweb/jraweb/validate"
)

const usage = `  horses|races|racecourses [key=value ...]   list with filters
  horse <id>
  login <username> <password>
  logout
  register -name N -username U -password P -license L
  whoami
  fav <horses|races|racecourses> <id>           toggle a favorite
  favorites <horses|races|racecourses>          list favorites, newest first
  entry -horse ID|NAME -race ID|NAME -saddlecloth N -barrier N -weight KG [-horse-weight KG] [-jockey N -license L]
  profile
  entries
  jockeys
`

var errUsage = errors.New("bad usage")

type command func(ctx context.Context, a *app.App, out io.Writer, html bool, args []string) error

var commands = map[string]command{
	"horses":      list((*app.App).ListHorses),
	"races":       list((*app.App).ListRaces),
	"racecourses": list((*app.App).ListRacecourses),
	"horse":       showHorse,
	"login":       login,
	"logout":      logout,
	"register":    register,
	"whoami":      whoami,
	"fav":         favorite,
	"favorites":   favorites,
	"entry":       entry,
	"profile":     profile,
	"entries":     entries,
	"jockeys":     jockeys,
}

func run(ctx context.Context, a *app.App, out io.Writer, html bool, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(out, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
	return cmd(ctx, a, out, html, args[1:])
}

func list(fn func(*app.App, context.Context, map[string]string) (render.Table, url.Values, error)) command {
	return func(ctx context.Context, a *app.App, out io.Writer, html bool, args []string) error {
		form := make(map[string]string, len(args))
		for _, arg := range args {
			k, v, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("%w: filter %q is not key=value", errUsage, arg)
			}
			form[k] = v
		}
		table, _, err := fn(a, ctx, form)
		if err != nil {
			return err
		}
		return show(out, html, table)
	}
}

func show(out io.Writer, html bool, table render.Table) error {
	if html {
		return table.HTML(out)
	}
	return table.Text(out)
}

func showHorse(ctx context.Context, a *app.App, out io.Writer, html bool, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: horse <id>", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: invalid id %q", errUsage, args[0])
	}
	table, err := a.Horse(ctx, id)
	if err != nil {
		return err
	}
	return show(out, html, table)
}

func login(ctx context.Context, a *app.App, _ io.Writer, _ bool, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: login <username> <password>", errUsage)
	}
	return a.Login(ctx, args[0], args[1])
}

func logout(_ context.Context, a *app.App, _ io.Writer, _ bool, _ []string) error {
	return a.Logout()
}

func register(ctx context.Context, a *app.App, out io.Writer, _ bool, args []string) error {
	var r validate.Registration
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&r.FullName, "name", "", "full name")
	fs.StringVar(&r.Username, "username", "", "username")
	fs.StringVar(&r.Password, "password", "", "password")
	fs.StringVar(&r.LicenseNumber, "license", "", "JRA license number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.Register(ctx, r)
}

func whoami(_ context.Context, a *app.App, out io.Writer, _ bool, _ []string) error {
	u, ok := a.Session().Current()
	if !ok {
		fmt.Fprintln(out, "not logged in")
		return nil
	}
	fmt.Fprintf(out, "%s (%s) id=%d license=%s\n", u.Name, u.Username, u.ID, u.LicenseNumber)
	return nil
}

func checkKind(kind string) error {
	switch kind {
	case client.KindHorses, client.KindRaces, client.KindRacecourses:
		return nil
	}
	return fmt.Errorf("%w: unknown kind %q", errUsage, kind)
}

func favorite(ctx context.Context, a *app.App, out io.Writer, _ bool, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: fav <kind> <id>", errUsage)
	}
	kind := args[0]
	if err := checkKind(kind); err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: invalid id %q", errUsage, args[1])
	}
	on, err := a.ToggleFavorite(ctx, kind, id)
	if err != nil {
		return err
	}
	mark := "♡"
	if on {
		mark = "♥"
	}
	fmt.Fprintf(out, "%s %s %d\n", mark, kind, id)
	return nil
}

func favorites(ctx context.Context, a *app.App, out io.Writer, html bool, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: favorites <kind>", errUsage)
	}
	if err := checkKind(args[0]); err != nil {
		return err
	}
	table, err := a.Favorites(ctx, args[0])
	if err != nil {
		return err
	}
	return show(out, html, table)
}

func entry(ctx context.Context, a *app.App, out io.Writer, _ bool, args []string) error {
	var f app.EntryForm
	var horseWeight int
	var horse, race string
	fs := flag.NewFlagSet("entry", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&horse, "horse", "", "horse id or name")
	fs.StringVar(&race, "race", "", "race id or name")
	fs.IntVar(&f.Saddlecloth, "saddlecloth", 0, "saddlecloth number")
	fs.IntVar(&f.Barrier, "barrier", 0, "barrier draw")
	fs.Float64Var(&f.DeclaredWeight, "weight", 0, "declared weight in kg")
	fs.IntVar(&horseWeight, "horse-weight", 0, "horse weight in kg")
	fs.StringVar(&f.JockeyName, "jockey", "", "jockey name, defaults to the logged-in jockey")
	fs.StringVar(&f.LicenseNumber, "license", "", "license number, defaults to the logged-in jockey")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if horseWeight != 0 {
		f.HorseWeight = &horseWeight
	}

	var choices app.EntryChoices
	if !isID(horse) || !isID(race) {
		var err error
		if choices, err = a.EntryChoices(ctx); err != nil {
			return err
		}
		if horse == "" {
			printOptions(out, "Horses", choices.Horses)
		}
		if race == "" {
			printOptions(out, "Open races", choices.Races)
		}
	}
	var err error
	if f.HorseID, err = resolve("horse", horse, choices.Horses); err != nil {
		return err
	}
	if f.RaceID, err = resolve("race", race, choices.Races); err != nil {
		return err
	}

	id, err := a.SubmitEntry(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "entry %d submitted\n", id)
	return nil
}

func isID(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// resolve turns an id or an option name into an id. Empty stays 0.
func resolve(what, value string, opts []models.Option) (int64, error) {
	if value == "" {
		return 0, nil
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, nil
	}
	if id, ok := app.Lookup(opts, value); ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: no %s named %q", errUsage, what, value)
}

func printOptions(out io.Writer, title string, opts []models.Option) {
	fmt.Fprintf(out, "%s:\n", title)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, o := range opts {
		fmt.Fprintf(tw, "  %d\t%s\n", o.ID, o.Name)
	}
	tw.Flush()
}

func profile(ctx context.Context, a *app.App, out io.Writer, _ bool, _ []string) error {
	p, err := a.Profile(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	fmt.Fprintf(tw, "Username\t%s\n", p.Username)
	fmt.Fprintf(tw, "License\t%s\n", p.LicenseNumber)
	fmt.Fprintf(tw, "Joined\t%s\n", p.CreatedAt.Format("2006-01-02"))
	return tw.Flush()
}

func entries(ctx context.Context, a *app.App, out io.Writer, _ bool, _ []string) error {
	je, err := a.Entries(ctx)
	if err != nil {
		return err
	}
	if len(je.Entries) == 0 {
		fmt.Fprintln(out, "No entries found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRace\tHorse\tSaddlecloth\tBarrier\tWeight\tStatus")
	for _, e := range je.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%g\t%s\n",
			e.ID, deref(e.RaceName), deref(e.HorseName), e.Saddlecloth, e.Barrier, e.DeclaredWeight, e.Status)
	}
	return tw.Flush()
}

func jockeys(ctx context.Context, a *app.App, out io.Writer, _ bool, _ []string) error {
	stats, err := a.JockeyStats(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Jockey\tLicense\tEntries")
	for _, j := range stats.Jockeys {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", j.Name, j.LicenseNumber, j.TotalEntries)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d jockeys, %d entries\n", stats.Stats.TotalJockeys, stats.Stats.TotalEntries)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
