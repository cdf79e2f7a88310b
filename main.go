package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/besofuls/EVTrade/internal/api"
	"github.com/besofuls/EVTrade/internal/dashboard"
	"github.com/besofuls/EVTrade/internal/metrics"
	"github.com/besofuls/EVTrade/internal/models"
	"github.com/besofuls/EVTrade/internal/notify"
	"github.com/besofuls/EVTrade/internal/oauth"
	"github.com/besofuls/EVTrade/internal/session"
	"github.com/besofuls/EVTrade/pkg/config"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize OpenTelemetry metrics
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics, meterProvider, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down meter provider: %v", err)
		}
	}()

	// Open the session file and watch it for changes from other processes.
	store, err := session.Open(cfg.SessionFile, cfg.SessionPollInterval)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	snapshots, unsubscribe := store.Subscribe()
	defer unsubscribe()
	go func() {
		for range snapshots {
			appMetrics.SessionReloads.Add(ctx, 1)
		}
	}()

	client := api.NewClient(cfg, store, appMetrics)
	notifier := notify.New(appMetrics)
	defer notifier.Close()

	if err := run(ctx, cfg, client, store, notifier); err != nil {
		notifier.Show(err.Error(), notify.Error)
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, client *api.Client, store *session.Store, notifier *notify.Notifier) error {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		return nil
	}
	command, rest := args[0], args[1:]

	switch command {
	case "login":
		return runLogin(ctx, client, notifier, rest)
	case "login-google":
		return runGoogleLogin(ctx, cfg, client, notifier)
	case "logout":
		if err := client.Logout(ctx); err != nil {
			return err
		}
		notifier.Show("Logged out.", notify.Success)
		return nil
	case "whoami":
		return runWhoami(store)
	case "listings":
		return runListings(ctx, client)
	case "search":
		return runSearch(ctx, client, rest)
	case "orders":
		return runOrders(ctx, client)
	case "pending":
		return runPending(ctx, client, store)
	case "approve", "reject", "remove":
		return runModerate(ctx, client, store, notifier, command, rest)
	case "complaints":
		return runComplaints(ctx, client, store, rest)
	case "resolve-complaint", "reject-complaint":
		return runComplaintDecision(ctx, client, store, notifier, command, rest)
	case "contract":
		return runContract(ctx, client, store, notifier, rest)
	case "stats":
		return runStats(ctx, client, store)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: evtrade <command> [args]

Commands:
  login <username> <password>        Sign in with credentials
  login-google                       Sign in via Google in the browser
  logout                             Sign out and clear the local session
  whoami                             Show the current session
  listings                           List active listings
  search key=value [key=value ...]   Search listings
  orders                             List my orders
  pending                            List listings awaiting moderation (staff)
  approve <listingID>                Approve a pending listing (staff)
  reject <listingID> <reason>        Reject a pending listing (staff)
  remove <listingID> <reason>        Remove a listing (staff)
  complaints [status]                List complaints (staff)
  resolve-complaint <complaintID>    Resolve a complaint (staff)
  reject-complaint <complaintID>     Dismiss a complaint (staff)
  contract <orderID>                 Ensure a signing contract for an order (admin)
  stats                              Show the admin overview dashboard (admin)`)
}

func runLogin(ctx context.Context, client *api.Client, notifier *notify.Notifier, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <username> <password>")
	}
	resp, err := client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	notifier.Show(fmt.Sprintf("Welcome back, %s!", resp.Username), notify.Success)
	return nil
}

func runGoogleLogin(ctx context.Context, cfg *config.Config, client *api.Client, notifier *notify.Notifier) error {
	server := oauth.NewCallbackServer(client, cfg.OAuthCallbackAddr)
	resp, err := server.Wait(ctx)
	if err != nil {
		return err
	}
	notifier.Show(fmt.Sprintf("Welcome back, %s!", resp.Username), notify.Success)
	return nil
}

func runWhoami(store *session.Store) error {
	snap := store.Current()
	switch snap.State {
	case session.Authenticated:
		fmt.Printf("Signed in as %s (%s)\n", snap.User.Username, strings.Join(snap.User.Roles, ", "))
		if claims := store.TokenClaims(); claims != nil {
			if exp, ok := claims["exp"].(float64); ok {
				fmt.Printf("Session expires %s\n", time.Unix(int64(exp), 0).Format(time.RFC1123))
			}
		}
	case session.Expired:
		fmt.Println("Session expired. Sign in again.")
	default:
		fmt.Println("Not signed in.")
	}
	return nil
}

func runListings(ctx context.Context, client *api.Client) error {
	page, err := client.GetAllListings(ctx)
	if err != nil {
		return err
	}
	printListings(page.Listings())
	return nil
}

func runSearch(ctx context.Context, client *api.Client, args []string) error {
	params := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("search terms must be key=value, got %q", arg)
		}
		params.Set(key, value)
	}
	page, err := client.SearchListings(ctx, params)
	if err != nil {
		return err
	}
	printListings(page.Listings())
	return nil
}

func runOrders(ctx context.Context, client *api.Client) error {
	orders, err := client.GetMyOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders yet.")
		return nil
	}
	for _, order := range orders {
		fmt.Printf("#%d  %-10s  %s  x%d\n", order.OrderID, order.Status, order.TotalAmount.StringFixed(0), order.Quantity)
	}
	return nil
}

func runPending(ctx context.Context, client *api.Client, store *session.Store) error {
	if err := requireStaff(store); err != nil {
		return err
	}
	queue := dashboard.NewModerationQueue(client, client.Metrics())
	if err := queue.RefreshPending(ctx); err != nil {
		return err
	}
	printListings(queue.Pending())
	return nil
}

func runModerate(ctx context.Context, client *api.Client, store *session.Store, notifier *notify.Notifier, action string, args []string) error {
	if err := requireStaff(store); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <listingID> [reason]", action)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("listing ID must be a number: %q", args[0])
	}
	reason := strings.Join(args[1:], " ")

	queue := dashboard.NewModerationQueue(client, client.Metrics())
	var done string
	switch action {
	case "approve":
		err = queue.Approve(ctx, id)
		done = "approved"
	case "reject":
		err = queue.Reject(ctx, id, reason)
		done = "rejected"
	case "remove":
		err = queue.Delete(ctx, id, reason)
		done = "removed"
	}
	if err != nil {
		return err
	}
	notifier.Show(fmt.Sprintf("Listing %d %s.", id, done), notify.Success)
	return nil
}

func runComplaints(ctx context.Context, client *api.Client, store *session.Store, args []string) error {
	if err := requireStaff(store); err != nil {
		return err
	}
	desk := dashboard.NewComplaintDesk(client)
	if len(args) > 0 {
		desk.SetStatusFilter(args[0])
	}
	if err := desk.Load(ctx); err != nil {
		return err
	}
	complaints := desk.Complaints()
	if len(complaints) == 0 {
		fmt.Println("No complaints.")
		return nil
	}
	for _, complaint := range complaints {
		reporter := "unknown"
		if complaint.User != nil {
			reporter = complaint.User.Username
		}
		fmt.Printf("#%d  %-10s  %s  %s\n", complaint.ComplaintID, complaint.Status, reporter, complaint.Content)
	}
	return nil
}

func runComplaintDecision(ctx context.Context, client *api.Client, store *session.Store, notifier *notify.Notifier, command string, args []string) error {
	if err := requireStaff(store); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <complaintID>", command)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("complaint ID must be a number: %q", args[0])
	}

	desk := dashboard.NewComplaintDesk(client)
	if command == "resolve-complaint" {
		err = desk.Resolve(ctx, id)
	} else {
		err = desk.Reject(ctx, id)
	}
	if err != nil {
		return err
	}
	notifier.Show(fmt.Sprintf("Complaint %d updated.", id), notify.Success)
	return nil
}

func runContract(ctx context.Context, client *api.Client, store *session.Store, notifier *notify.Notifier, args []string) error {
	if err := requireAdmin(store); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: contract <orderID>")
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("order ID must be a number: %q", args[0])
	}

	desk := dashboard.NewContractDesk(client)
	if err := desk.Load(ctx); err != nil {
		return err
	}
	var order *models.Order
	for _, candidate := range desk.Orders() {
		if candidate.OrderID == orderID {
			order = &candidate
			break
		}
	}
	if order == nil {
		return fmt.Errorf("order %d is not eligible for a contract", orderID)
	}

	contract, err := desk.EnsureContract(ctx, dashboard.RequestFromOrder(order))
	if err != nil {
		return err
	}
	notifier.Show("Contract is ready for signing.", notify.Success)
	fmt.Printf("Contract #%d  %s\n", contract.ContractID, contract.Status)
	if contract.SellerSigningURL != "" {
		fmt.Printf("  seller: %s\n", contract.SellerSigningURL)
	}
	if contract.BuyerSigningURL != "" {
		fmt.Printf("  buyer:  %s\n", contract.BuyerSigningURL)
	}
	return nil
}

func runStats(ctx context.Context, client *api.Client, store *session.Store) error {
	if err := requireAdmin(store); err != nil {
		return err
	}
	overview := dashboard.NewOverview(client)

	stats, err := overview.LoadStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Members:      %d\n", stats.MemberCount)
	fmt.Printf("Listings:     %d\n", stats.ListingCount)
	fmt.Printf("Transactions: %d\n", stats.TransactionCount)
	fmt.Printf("Complaints:   %d\n", stats.ComplaintCount)

	financials, err := overview.LoadFinancials(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Revenue:      %s (orders %s, extensions %s)\n",
		financials.CombinedRevenue().StringFixed(0),
		financials.TotalOrderRevenue.StringFixed(0),
		financials.TotalExtendRevenue.StringFixed(0))

	for _, segment := range dashboard.BuildPieSegments(financials.CategoryStats) {
		fmt.Printf("  %-20s %3d  (%.0f°-%.0f°)\n", segment.CategoryName, segment.Count, segment.StartAngle, segment.EndAngle)
	}
	return nil
}

func requireStaff(store *session.Store) error {
	return enforce(store, session.NewGuard(store).RequireStaff(),
		"this command needs a staff session; sign in first")
}

func requireAdmin(store *session.Store) error {
	return enforce(store, session.NewGuard(store).RequireAdmin(),
		"this command needs an admin session; sign in first")
}

// enforce acts on a guard decision: an expired session is wiped before the
// command fails, so the dead token is not kept around.
func enforce(store *session.Store, decision session.Decision, denied string) error {
	if decision.Allowed {
		return nil
	}
	if decision.ClearSession {
		if err := store.Clear(); err != nil {
			log.Printf("Error clearing expired session: %v", err)
		}
		return fmt.Errorf("your session has expired, please sign in again")
	}
	return errors.New(denied)
}

func printListings(listings []models.Listing) {
	if len(listings) == 0 {
		fmt.Println("No listings.")
		return
	}
	for _, listing := range listings {
		fmt.Printf("#%d  %-10s  %-12s  %s\n", listing.ID, listing.Status, listing.Price.StringFixed(0), listing.Title)
	}
}
