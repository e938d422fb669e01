// Command eatsctl exercises the eats client from a terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/internal/app"
	"github.com/hkeats/eats/internal/cli"
	"github.com/hkeats/eats/internal/config"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/internal/location"
	"github.com/hkeats/eats/internal/menu"
	"github.com/hkeats/eats/internal/review"
	"github.com/hkeats/eats/internal/search"
	"github.com/hkeats/eats/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// console carries the state shared by subcommands.
type console struct {
	app    *app.Application
	locale string
	asJSON bool
	out    io.Writer
	errOut io.Writer
}

// errUsage marks a subcommand flag parse failure; flag has already printed why.
var errUsage = errors.New("usage")

type command struct {
	summary string
	flags   []string
	run     func(ctx context.Context, c *console, args []string) error
}

var commandOrder = []string{"nearby", "featured", "restaurant", "menu", "reviews", "review", "search", "suggest", "login"}

var commands = map[string]command{
	"nearby":     {"list restaurants near a point", []string{"lat", "lng", "radius"}, runNearby},
	"featured":   {"list featured restaurants", nil, runFeatured},
	"restaurant": {"show one restaurant", []string{"id"}, runRestaurant},
	"menu":       {"show a restaurant menu", []string{"id", "limit", "category", "dietary", "all", "q", "sort"}, runMenu},
	"reviews":    {"list reviews with rating statistics", []string{"id", "limit"}, runReviews},
	"review":     {"sign in and submit a review", []string{"id", "rating", "comment", "email", "password"}, runReview},
	"search":     {"search the restaurant index", []string{"q", "cuisine", "price", "min-rating", "near", "radius", "limit"}, runSearch},
	"suggest":    {"autocomplete names and cuisines", []string{"prefix", "limit"}, runSuggest},
	"login":      {"sign in and show the profile, or send a password reset", []string{"email", "password", "reset"}, runLogin},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("eatsctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "YAML config file")
	localeFlag := global.String("locale", "", "display locale (en, zh-Hant); defaults to config")
	asJSON := global.Bool("json", false, "print JSON")
	verbose := global.Bool("v", false, "debug logging")
	global.Usage = func() { printUsage(stderr, global) }

	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		printUsage(stderr, global)
		return 2
	}
	name := global.Arg(0)
	if name == "completion" {
		return runCompletion(global.Args()[1:], stdout, stderr)
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		printUsage(stderr, global)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	level := cfg.Log.Level
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Component: "eatsctl", Level: level, Format: cfg.Log.Format, Output: stderr})

	application, err := app.New(cfg, app.Deps{}, log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer application.Close()

	c := &console{app: application, locale: firstNonEmpty(*localeFlag, cfg.Locale), asJSON: *asJSON, out: stdout, errOut: stderr}
	if err := cmd.run(ctx, c, global.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		log.WithError(err).Debug("command failed")
		fmt.Fprintln(stderr, apierr.UserMessage(err, c.locale))
		return 1
	}
	return 0
}

func printUsage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintln(w, "usage: eatsctl [global flags] <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range commandOrder {
		fmt.Fprintf(tw, "  %s\t%s\n", name, commands[name].summary)
	}
	fmt.Fprintf(tw, "  completion\tprint or install a shell completion script\n")
	tw.Flush()
	fmt.Fprintln(w, "\nglobal flags:")
	global.PrintDefaults()
}

func newFlags(name string, c *console) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// ============================================================================
// Restaurants
// ============================================================================

func runNearby(ctx context.Context, c *console, args []string) error {
	fs := newFlags("nearby", c)
	lat := fs.Float64("lat", 0, "latitude (defaults to current location)")
	lng := fs.Float64("lng", 0, "longitude (defaults to current location)")
	radius := fs.Int("radius", 0, "radius in metres (defaults to config)")
	if err := parse(fs, args); err != nil {
		return err
	}

	here := domain.Coordinate{Latitude: *lat, Longitude: *lng}
	if *lat == 0 && *lng == 0 {
		var err error
		if here, err = c.app.Location.CurrentLocation(ctx); err != nil {
			return err
		}
	}
	list, err := c.app.Restaurants.FetchNearby(ctx, here.Latitude, here.Longitude, *radius)
	if err != nil {
		return err
	}
	return c.printRestaurants(location.SortByDistance(list, here))
}

func runFeatured(ctx context.Context, c *console, args []string) error {
	if err := parse(newFlags("featured", c), args); err != nil {
		return err
	}
	list, err := c.app.Restaurants.FetchFeatured(ctx)
	if err != nil {
		return err
	}
	return c.printRestaurants(list)
}

func runRestaurant(ctx context.Context, c *console, args []string) error {
	fs := newFlags("restaurant", c)
	id := fs.String("id", "", "restaurant id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return apierr.MissingField("id")
	}
	r, err := c.app.Restaurants.FetchByID(ctx, *id)
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(r)
	}
	fmt.Fprintf(c.out, "%s\n%s\n%s · %s · %s★ (%d)\n%s\n",
		r.Name.Localized(c.locale),
		r.Description.Localized(c.locale),
		r.Cuisine.Localized(c.locale), r.PriceRange, r.RatingText(), r.ReviewCount,
		r.Address.Localized(c.locale))
	if r.IsOpenNow() {
		fmt.Fprintln(c.out, domain.NewBilingualText("Open now", "營業中").Localized(c.locale))
	} else {
		fmt.Fprintln(c.out, domain.NewBilingualText("Closed", "休息中").Localized(c.locale))
	}
	return nil
}

func (c *console) printRestaurants(list []domain.Restaurant) error {
	if c.asJSON {
		return c.printJSON(list)
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name.Localized(c.locale), r.District.Localized(c.locale), r.PriceRange, r.RatingText())
	}
	return tw.Flush()
}

// ============================================================================
// Menus and reviews
// ============================================================================

func runMenu(ctx context.Context, c *console, args []string) error {
	fs := newFlags("menu", c)
	id := fs.String("id", "", "restaurant id")
	limit := fs.Int("limit", 0, "maximum items")
	category := fs.String("category", "", "only this category")
	dietary := fs.String("dietary", "", "comma separated dietary tags, all required")
	all := fs.Bool("all", false, "include unavailable items")
	query := fs.String("q", "", "search names and descriptions")
	sortBy := fs.String("sort", "", "price, price-desc or name")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return apierr.MissingField("id")
	}

	items, err := c.app.Menus.FetchForRestaurant(ctx, *id, *limit)
	if err != nil {
		return err
	}
	items = menu.FilterByAvailability(items, !*all)
	if *category != "" {
		items = menu.FilterByCategory(items, domain.MenuCategory(*category))
	}
	if tags := splitList(*dietary); len(tags) > 0 {
		dt := make([]domain.DietaryTag, len(tags))
		for i, t := range tags {
			dt[i] = domain.DietaryTag(t)
		}
		items = menu.FilterByDietary(items, dt...)
	}
	if *query != "" {
		items = menu.Search(items, *query)
	}
	switch *sortBy {
	case "price":
		items = menu.SortByPrice(items, true)
	case "price-desc":
		items = menu.SortByPrice(items, false)
	case "name":
		items = menu.SortByName(items)
	}

	if c.asJSON {
		return c.printJSON(items)
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, g := range menu.GroupByCategory(items) {
		fmt.Fprintf(tw, "%s\n", g.Category.DisplayName().Localized(c.locale))
		for _, it := range g.Items {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", it.Name.Localized(c.locale), it.DisplayPrice(), it.SpiceIndicator())
		}
	}
	if lo, hi, ok := menu.PriceRange(items); ok {
		avg, _ := menu.AveragePrice(items)
		fmt.Fprintf(tw, "\nHK$%.0f-%.0f\tavg HK$%.2f\n", lo, hi, avg)
	}
	return tw.Flush()
}

func runReviews(ctx context.Context, c *console, args []string) error {
	fs := newFlags("reviews", c)
	id := fs.String("id", "", "restaurant id")
	limit := fs.Int("limit", 0, "maximum reviews")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return apierr.MissingField("id")
	}
	list, err := c.app.Reviews.FetchForRestaurant(ctx, *id, *limit)
	if err != nil {
		return err
	}
	dist := review.RatingDistribution(list)
	if c.asJSON {
		return c.printJSON(map[string]any{
			"reviews":      list,
			"average":      review.AverageRating(list),
			"distribution": dist,
		})
	}
	for _, r := range list {
		fmt.Fprintf(c.out, "%s %s: %s\n", strings.Repeat("★", r.Rating), r.UserName, r.Comment)
	}
	fmt.Fprintf(c.out, "\naverage %.1f from %d reviews\n", review.AverageRating(list), len(list))
	for star := review.MaxRating; star >= review.MinRating; star-- {
		fmt.Fprintf(c.out, "%d★ %d\n", star, dist[star])
	}
	return nil
}

func runReview(ctx context.Context, c *console, args []string) error {
	fs := newFlags("review", c)
	id := fs.String("id", "", "restaurant id")
	rating := fs.Int("rating", 0, "1 to 5")
	comment := fs.String("comment", "", "at least 10 characters")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("EATS_PASSWORD"), "account password (or EATS_PASSWORD)")
	if err := parse(fs, args); err != nil {
		return err
	}

	req := domain.SubmitReviewRequest{RestaurantID: *id, Rating: *rating, Comment: *comment}
	if err := review.Validate(req); err != nil {
		return err
	}
	if _, err := c.app.Session.SignIn(ctx, *email, *password); err != nil {
		return err
	}
	defer func() { _ = c.app.Session.SignOut(context.Background()) }()

	r, err := c.app.Reviews.Submit(ctx, req)
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(r)
	}
	fmt.Fprintf(c.out, "review %s submitted\n", r.ID)
	return nil
}

// ============================================================================
// Search
// ============================================================================

func runSearch(ctx context.Context, c *console, args []string) error {
	fs := newFlags("search", c)
	query := fs.String("q", "", "free text")
	cuisines := fs.String("cuisine", "", "comma separated cuisines, any matches")
	prices := fs.String("price", "", "comma separated price ranges, any matches")
	minRating := fs.Float64("min-rating", 0, "minimum rating")
	near := fs.Bool("near", false, "bias results towards the current location")
	radius := fs.Int("radius", 0, "geo-bias radius in metres")
	limit := fs.Int("limit", 20, "results per page")
	if err := parse(fs, args); err != nil {
		return err
	}
	if c.app.Search == nil {
		return errors.New("search is not configured")
	}

	q := search.Query{
		Text: *query,
		Filters: search.Filters{
			Cuisines:    splitList(*cuisines),
			PriceRanges: splitList(*prices),
			MinRating:   *minRating,
		},
		Limit: *limit,
	}
	if *near {
		here, err := c.app.Location.CurrentLocation(ctx)
		if err != nil {
			return err
		}
		q.Near = &here
		q.RadiusMeters = *radius
		if q.RadiusMeters <= 0 {
			q.RadiusMeters = c.app.Config.DefaultRadius
		}
	}
	list, err := c.app.Search.Search(ctx, q)
	if err != nil {
		return err
	}
	return c.printRestaurants(list)
}

func runSuggest(ctx context.Context, c *console, args []string) error {
	fs := newFlags("suggest", c)
	prefix := fs.String("prefix", "", "text typed so far")
	limit := fs.Int("limit", search.DefaultSuggestions, "maximum suggestions")
	if err := parse(fs, args); err != nil {
		return err
	}
	if c.app.Search == nil {
		return errors.New("search is not configured")
	}
	list, err := c.app.Search.Autocomplete(ctx, *prefix, *limit, c.locale)
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(list)
	}
	for _, s := range list {
		fmt.Fprintln(c.out, s)
	}
	return nil
}

// ============================================================================
// Account
// ============================================================================

func runLogin(ctx context.Context, c *console, args []string) error {
	fs := newFlags("login", c)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("EATS_PASSWORD"), "account password (or EATS_PASSWORD)")
	reset := fs.Bool("reset", false, "send a password reset email instead")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *reset {
		if err := c.app.Session.SendPasswordReset(ctx, *email); err != nil {
			return err
		}
		fmt.Fprintln(c.out, domain.NewBilingualText("Password reset email sent.", "已發送重設密碼電郵。").Localized(c.locale))
		return nil
	}

	u, err := c.app.Session.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	defer func() { _ = c.app.Session.SignOut(context.Background()) }()

	if c.asJSON {
		return c.printJSON(u)
	}
	fmt.Fprintf(c.out, "%s <%s> %s\n", u.DisplayName, u.Email, u.UserType)
	return nil
}

// ============================================================================
// Completion
// ============================================================================

func runCompletion(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("completion", flag.ContinueOnError)
	fs.SetOutput(stderr)
	install := fs.Bool("install", false, "write the script under $HOME instead of printing it")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fmt.Fprintf(stderr, "usage: eatsctl completion [-install] <%s>\n", strings.Join(cli.Shells, "|"))
		return 2
	}
	shell := fs.Arg(0)

	list := make([]cli.Command, 0, len(commandOrder))
	for _, name := range commandOrder {
		list = append(list, cli.Command{Name: name, Summary: commands[name].summary, Flags: commands[name].flags})
	}
	globalFlags := []string{"config", "locale", "json", "v"}

	if !*install {
		if err := cli.Generate(stdout, shell, "eatsctl", list, globalFlags); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	path, err := cli.Install(home, shell, "eatsctl", list, globalFlags)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintf(stdout, "Completion script installed to: %s\n", path)
	return 0
}

// ============================================================================
// Helpers
// ============================================================================

func (c *console) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
