package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zaiko-app/zaiko/internal/client"
	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
	"github.com/zaiko-app/zaiko/internal/viewmodel"
)

var errNotSignedIn = errors.New("not signed in, run: zaikoctl login")

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// start loads the signed-in user's items.
func (a *app) start(ctx context.Context) error {
	if err := a.ctl.Start(ctx); err != nil {
		return err
	}
	if a.ctl.Session() == nil {
		return errNotSignedIn
	}
	return nil
}

// resolve finds the item whose id is ref or starts with ref.
func (a *app) resolve(ref string) (model.Item, error) {
	if item, ok := a.ctl.Items.Get(ref); ok {
		return item, nil
	}
	var matches []model.Item
	for _, item := range a.ctl.Items.Items() {
		if strings.HasPrefix(item.ID, ref) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 0:
		return model.Item{}, fmt.Errorf("no item %q", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Item{}, fmt.Errorf("item id %q is ambiguous", ref)
	}
}

func oneArg(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected one %s", what)
	}
	return fs.Arg(0), nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		name, err := a.prompt("Username: ")
		if err != nil {
			return err
		}
		*username = strings.TrimSpace(name)
	}
	password, err := a.prompt("Password: ")
	if err != nil {
		return err
	}

	sess, err := a.sessions.SignIn(ctx, client.ProviderPassword, client.Credentials{
		Username: *username,
		Password: password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", sess.Username)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.sessions.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	sess, err := a.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return errNotSignedIn
	}
	fmt.Fprintf(a.out, "%s (%s) on %s\n", sess.Username, sess.Role, a.client.BaseURL())
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	completed := fs.Bool("completed", false, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	view := lifecycle.ViewActive
	if *completed {
		view = lifecycle.ViewCompleted
	}
	items := a.ctl.Items.View(view)
	if len(items) == 0 {
		fmt.Fprintf(a.out, "No %s items.\n", view)
		return nil
	}
	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		writeItem(a.out, item)
	}
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	var d model.Draft
	fs.StringVar(&d.Name, "name", "", "")
	fs.Int64Var(&d.Price, "price", 0, "")
	fs.Int64Var(&d.Shipping, "shipping", 0, "")
	fs.StringVar(&d.Notes, "notes", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if d.Name == "" && fs.NArg() > 0 {
		d.Name = strings.Join(fs.Args(), " ")
	}
	if !d.HasName() {
		return viewmodel.ErrEmptyName
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	if err := a.ctl.Items.Create(ctx, &d); err != nil {
		return err
	}
	if items := a.ctl.Items.Items(); len(items) > 0 {
		fmt.Fprintln(a.out, "Added:")
		writeItem(a.out, items[0])
	}
	return nil
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return errors.New("usage: zaikoctl edit <id> [-name] [-price] [-shipping] [-notes] [-status]")
	}
	ref := args[0]

	fs := newFlagSet("edit")
	name := fs.String("name", "", "")
	price := fs.Int64("price", 0, "")
	shipping := fs.Int64("shipping", 0, "")
	notes := fs.String("notes", "", "")
	status := fs.String("status", "", "")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	found, err := a.resolve(ref)
	if err != nil {
		return err
	}
	item, err := a.ctl.Items.Edit(found.ID)
	if err != nil {
		return err
	}

	changed := false
	fs.Visit(func(f *flag.Flag) {
		changed = true
		switch f.Name {
		case "name":
			item.Name = *name
		case "price":
			item.Price = *price
		case "shipping":
			item.Shipping = *shipping
		case "notes":
			item.Notes = *notes
		case "status":
			item.Status = lifecycle.Stage(*status)
		}
	})
	if !changed {
		a.ctl.Items.CancelEdit()
		fmt.Fprintln(a.out, "Nothing to change.")
		return nil
	}

	if err := a.ctl.Items.Update(ctx, item); err != nil {
		return err
	}
	if updated, ok := a.ctl.Items.Get(item.ID); ok {
		writeItem(a.out, updated)
	}
	return nil
}

func (a *app) cmdMove(ctx context.Context, args []string, forward bool) error {
	fs := newFlagSet("move")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ref, err := oneArg(fs, "item id")
	if err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	item, err := a.resolve(ref)
	if err != nil {
		return err
	}
	dir := lifecycle.Backward
	if forward {
		dir = lifecycle.Forward
	}
	if err := a.ctl.Items.SetStatus(ctx, item, dir); err != nil {
		return err
	}

	moved, _ := a.ctl.Items.Get(item.ID)
	if moved.Status == item.Status {
		fmt.Fprintf(a.out, "%s is already %s.\n", item.Name, lifecycle.Label(item.Status))
		return nil
	}
	fmt.Fprintf(a.out, "%s: %s -> %s\n", item.Name, lifecycle.Label(item.Status), lifecycle.Label(moved.Status))
	return nil
}

func (a *app) cmdRemove(ctx context.Context, args []string) error {
	fs := newFlagSet("rm")
	yes := fs.Bool("y", false, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ref, err := oneArg(fs, "item id")
	if err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	item, err := a.resolve(ref)
	if err != nil {
		return err
	}
	confirm := viewmodel.ConfirmFunc(a.confirm)
	if *yes {
		confirm = func(string) bool { return true }
	}

	err = a.ctl.Items.Delete(ctx, item.ID, confirm)
	if errors.Is(err, viewmodel.ErrNotConfirmed) {
		fmt.Fprintln(a.out, "Kept.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s.\n", item.Name)
	return nil
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	fs := newFlagSet("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ref, err := oneArg(fs, "item id")
	if err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	item, err := a.resolve(ref)
	if err != nil {
		return err
	}
	detail, err := a.client.GetItem(ctx, item.ID)
	if err != nil {
		return err
	}
	writeItem(a.out, *detail.Item)
	fmt.Fprintf(a.out, "  id %s, added %s\n", detail.Item.ID, detail.Item.CreatedAt.Local().Format("2006-01-02 15:04"))
	if detail.Item.Notes != "" {
		fmt.Fprintf(a.out, "  notes: %s\n", detail.Item.Notes)
	}
	if detail.Item.HasPhoto {
		fmt.Fprintln(a.out, "  has a photo")
	}
	return nil
}

func (a *app) cmdPhoto(ctx context.Context, args []string) error {
	fs := newFlagSet("photo")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: zaikoctl photo <id> <file>")
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	item, err := a.resolve(fs.Arg(0))
	if err != nil {
		return err
	}
	f, err := os.Open(fs.Arg(1))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := a.client.UploadPhoto(ctx, item.ID, filepath.Base(f.Name()), f); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Photo saved for %s.\n", item.Name)
	return nil
}

func (a *app) cmdSummary(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		return err
	}
	s, err := a.client.Summary(ctx)
	if err != nil {
		return err
	}
	writeSummary(a.out, s)
	return nil
}

func (a *app) cmdPasswd(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		return err
	}
	current, err := a.prompt("Current password: ")
	if err != nil {
		return err
	}
	next, err := a.prompt("New password: ")
	if err != nil {
		return err
	}
	if err := model.ValidatePassword(next); err != nil {
		return err
	}
	if err := a.sessions.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed.")
	return nil
}

func (a *app) cmdUserAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("useradd")
	username := fs.String("u", "", "")
	role := fs.String("role", model.RoleUser, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("usage: zaikoctl useradd -u <name> [-role user|admin]")
	}
	if err := a.start(ctx); err != nil {
		return err
	}
	password, err := a.prompt("Password for " + *username + ": ")
	if err != nil {
		return err
	}

	u, err := a.client.CreateUser(ctx, *username, password, *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s (%s).\n", u.Username, u.Role)
	return nil
}
