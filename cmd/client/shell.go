package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/grocerease/internal/client/prompt"
	"github.com/atinyakov/grocerease/internal/client/remote/fakeapi"
	"github.com/atinyakov/grocerease/internal/logger"
	"github.com/atinyakov/grocerease/internal/models"
	"github.com/atinyakov/grocerease/internal/store"
)

const helpText = `Available commands:
  help                 show this message
  login | register     start a session
  logout | whoami      end or show the session
  products [category]  list products
  categories           list categories
  add <id>             add one unit of a product to the cart
  remove <id>          drop a cart line
  inc <id> | dec <id>  change a cart line quantity
  cart | clear         show or empty the cart
  checkout             place an order for the cart
  orders               show your order history
  loglevel [level]     show or change the log level
  outage <path>        make a demo resource fail (demo mode)
  restore <path>       end a demo outage (demo mode)
  exit`

// consoleNotifier prints notifications as "[kind] message" lines.
func consoleNotifier(w io.Writer) store.Notifier {
	return store.NotifierFunc(func(kind store.Kind, message string) error {
		_, err := fmt.Fprintf(w, "[%s] %s\n", kind, message)
		return err
	})
}

var logLevels = []string{"debug", "info", "warn", "error"}

type shell struct {
	store  *store.Store
	prompt *prompt.Prompter
	out    io.Writer
	levels *logger.Logger
	demo   *fakeapi.Server
}

type shellOption func(*shell)

// withLogger lets the loglevel command change l at runtime.
func withLogger(l *logger.Logger) shellOption {
	return func(sh *shell) { sh.levels = l }
}

// withDemo enables the outage commands against the in-process service.
func withDemo(api *fakeapi.Server) shellOption {
	return func(sh *shell) { sh.demo = api }
}

func newShell(s *store.Store, p *prompt.Prompter, out io.Writer, opts ...shellOption) *shell {
	sh := &shell{store: s, prompt: p, out: out}
	for _, opt := range opts {
		opt(sh)
	}
	return sh
}

// run reads commands until exit, end of input or ctx cancellation.
func (sh *shell) run(ctx context.Context) error {
	for ctx.Err() == nil {
		line, err := sh.prompt.Ask("grocerease> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(sh.out, "Bye")
			return nil
		}
		if err := sh.exec(ctx, args); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintln(sh.out, err)
		}
	}
	return nil
}

func (sh *shell) exec(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(sh.out, helpText)
	case "login":
		email, password, err := sh.prompt.Credentials()
		if err != nil {
			return err
		}
		sh.store.Login(ctx, email, password)
	case "register":
		name, email, password, err := sh.prompt.Registration()
		if err != nil {
			return err
		}
		sh.store.Register(ctx, name, email, password)
	case "logout":
		sh.store.Logout()
	case "whoami":
		st := sh.store.State()
		if !st.IsLoggedIn {
			fmt.Fprintln(sh.out, "Not logged in")
			return nil
		}
		fmt.Fprintf(sh.out, "%s <%s>, member since %s\n", st.User.Name, st.User.Email, st.User.Joined)
	case "products":
		category := ""
		if len(args) > 1 {
			category = strings.Join(args[1:], " ")
		}
		sh.products(ctx, category)
	case "categories":
		sh.categories(ctx)
	case "add", "remove", "inc", "dec":
		if len(args) < 2 {
			return fmt.Errorf("usage: %s <id>", args[0])
		}
		return sh.cartCommand(ctx, args[0], models.ID(args[1]))
	case "cart":
		sh.cart()
	case "clear":
		sh.store.ClearCart()
	case "checkout":
		return sh.checkout(ctx)
	case "orders":
		sh.orders(ctx)
	case "loglevel":
		return sh.logLevel(args[1:])
	case "outage", "restore":
		if len(args) < 2 {
			return fmt.Errorf("usage: %s <path>", args[0])
		}
		return sh.outage(args[0], args[1])
	default:
		fmt.Fprintln(sh.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (sh *shell) products(ctx context.Context, category string) {
	st := sh.store.State()
	if len(st.Products) == 0 {
		sh.store.FetchProducts(ctx)
		st = sh.store.State()
	}
	if st.Error != "" {
		fmt.Fprintln(sh.out, st.Error)
	}

	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY")
	for _, p := range st.Products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, models.NewAmount(p.Price), p.Category)
	}
	_ = tw.Flush()
}

func (sh *shell) categories(ctx context.Context) {
	st := sh.store.State()
	if len(st.Categories) == 0 {
		sh.store.FetchCategories(ctx)
		st = sh.store.State()
	}
	for _, c := range st.Categories {
		fmt.Fprintf(sh.out, "%s\t%s\n", c.ID, c.Name)
	}
}

func (sh *shell) cartCommand(ctx context.Context, cmd string, id models.ID) error {
	switch cmd {
	case "add":
		p, ok := sh.findProduct(ctx, id)
		if !ok {
			return fmt.Errorf("product %s not found", id)
		}
		sh.store.AddToCart(p)
	case "remove":
		sh.store.RemoveFromCart(id)
	case "inc":
		sh.store.IncrementQuantity(id)
	case "dec":
		sh.store.DecrementQuantity(id)
	}
	return nil
}

func (sh *shell) findProduct(ctx context.Context, id models.ID) (models.Product, bool) {
	lookup := func() (models.Product, bool) {
		for _, p := range sh.store.State().Products {
			if p.ID == id {
				return p, true
			}
		}
		return models.Product{}, false
	}
	if p, ok := lookup(); ok {
		return p, true
	}
	sh.store.FetchProducts(ctx)
	return lookup()
}

func (sh *shell) cart() {
	st := sh.store.State()
	if len(st.CartItems) == 0 {
		fmt.Fprintln(sh.out, "Your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tSUBTOTAL")
	for _, it := range st.CartItems {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ID, it.Name, it.Quantity, models.NewAmount(it.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t%d\t%s\n", sh.store.CartCount(), sh.store.CartTotal())
	_ = tw.Flush()
}

func (sh *shell) checkout(ctx context.Context) error {
	st := sh.store.State()
	if !st.IsLoggedIn {
		sh.store.Checkout(ctx, models.ShippingDetails{})
		return nil
	}
	details, err := sh.prompt.Shipping(st.User)
	if err != nil {
		return err
	}
	sh.store.Checkout(ctx, details)
	return nil
}

func (sh *shell) orders(ctx context.Context) {
	st := sh.store.State()
	if !st.IsLoggedIn {
		fmt.Fprintln(sh.out, "Not logged in")
		return
	}
	sh.store.FetchOrders(ctx, st.User.Email)
	st = sh.store.State()
	if len(st.Orders) == 0 {
		fmt.Fprintln(sh.out, "No orders yet")
		return
	}

	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tITEMS\tTOTAL\tSTATUS")
	for _, o := range st.Orders {
		date := o.Date
		if t, ok := o.Time(); ok {
			date = t.Local().Format("2 Jan 2006 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", o.ID, date, len(o.Items), o.TotalAmount, o.Status)
	}
	_ = tw.Flush()
}

func (sh *shell) logLevel(args []string) error {
	if sh.levels == nil {
		return errors.New("log level cannot be changed")
	}
	if len(args) > 0 {
		if err := sh.levels.SetLevel(args[0]); err != nil {
			return err
		}
	}
	for _, lvl := range logLevels {
		if sh.levels.Enabled(lvl) {
			fmt.Fprintf(sh.out, "Log level: %s\n", lvl)
			return nil
		}
	}
	fmt.Fprintln(sh.out, "Log level: off")
	return nil
}

func (sh *shell) outage(cmd, path string) error {
	if sh.demo == nil {
		return fmt.Errorf("%s is only available in demo mode", cmd)
	}
	path = "/" + strings.TrimPrefix(path, "/")
	if cmd == "outage" {
		sh.demo.Fail(path)
		fmt.Fprintf(sh.out, "%s now fails\n", path)
		return nil
	}
	sh.demo.Recover(path)
	fmt.Fprintf(sh.out, "%s restored\n", path)
	return nil
}
