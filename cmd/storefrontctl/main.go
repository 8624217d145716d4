// storefrontctl is a CLI tool for exercising a storefront server.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	storefrontctl products [-search TEXT] [-sort ORDER] [-limit N]
//	storefrontctl product -handle HANDLE
//	storefrontctl cart
//	storefrontctl add -id ID [-qty N]
//	storefrontctl update -line LINE_ID -qty N
//	storefrontctl remove -line LINE_ID
//	storefrontctl clear
//	storefrontctl checkout -product ID [-qty N]
//	storefrontctl status -id SESSION_ID
//
// Cart commands act on the visitor session given by -session or
// STOREFRONT_SESSION, so consecutive invocations share one cart.
//
// Examples:
//
//	export STOREFRONT_SESSION=$(storefrontctl session)
//	storefrontctl add -id smart-watch -qty 2
//	LINE=$(storefrontctl cart -q | head -1)
//	storefrontctl update -line $LINE -qty 1
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/session"
)

// clientVersion is the API version this tool speaks. Servers with a
// different major version are refused.
const clientVersion = "v1.0.0"

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL string
	sessionID string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "session":
		fmt.Println(session.NewID())
	case "products":
		runProducts(args)
	case "product":
		runProduct(args)
	case "cart":
		runCart(args)
	case "add":
		runAdd(args)
	case "update":
		runUpdate(args)
	case "remove":
		runRemove(args)
	case "clear":
		runClear(args)
	case "checkout":
		runCheckout(args)
	case "status":
		runStatus(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `storefrontctl - storefront test tool

Usage:
  storefrontctl <command> [options]

Commands:
  session   Print a fresh session ID
  products  List products
  product   Show one product
  cart      Show the cart
  add       Add an item to the cart
  update    Set a cart line quantity
  remove    Remove a cart line
  clear     Empty the cart
  checkout  Create an embedded checkout session
  status    Show a checkout session's status

Examples:
  export STOREFRONT_SESSION=$(storefrontctl session)
  storefrontctl add -id smart-watch -qty 2
  storefrontctl cart

Run 'storefrontctl <command> -h' for command-specific options.
`)
}

// newFlagSet registers the global flags on a command's flag set.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&serverURL, "server", envOr("STOREFRONT_URL", "http://localhost:8080"), "Storefront base URL")
	fs.StringVar(&sessionID, "session", os.Getenv("STOREFRONT_SESSION"), "Visitor session ID")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output IDs")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl %s\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses flags and checks the server speaks our major version.
func parse(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	if err := checkServerVersion(); err != nil {
		fatal("%v", err)
	}
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

func runProducts(args []string) {
	fs := newFlagSet("products", "products [options]")
	var search, sort, collection string
	var limit int
	fs.StringVar(&search, "search", "", "Search text")
	fs.StringVar(&sort, "sort", "", "featured, price-asc, price-desc or name")
	fs.StringVar(&collection, "collection", "", "Collection handle")
	fs.IntVar(&limit, "limit", 0, "Maximum number of products")
	parse(fs, args)

	q := url.Values{}
	setIf(q, "q", search)
	setIf(q, "sort", sort)
	setIf(q, "collection", collection)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Products []model.Product `json:"products"`
		DemoMode bool            `json:"demoMode"`
	}
	if err := doRequest("GET", "/api/products?"+q.Encode(), nil, &resp); err != nil {
		fatal("Failed to list products: %v", err)
	}

	for _, p := range resp.Products {
		if quiet {
			fmt.Println(p.ID)
			continue
		}
		fmt.Printf("  %s%-24s%s %-36s %s\n", colorCyan, p.Handle, colorReset, p.Name, formatCents(p.Price))
	}
	if resp.DemoMode {
		printInfo("Demo catalog")
	}
}

func runProduct(args []string) {
	fs := newFlagSet("product", "product -handle HANDLE [options]")
	var handle string
	fs.StringVar(&handle, "handle", "", "Product handle (required)")
	parse(fs, args)

	if handle == "" {
		fs.Usage()
		os.Exit(1)
	}

	var p model.Product
	if err := doRequest("GET", "/api/products/"+url.PathEscape(handle), nil, &p); err != nil {
		fatal("Failed to get product: %v", err)
	}

	if quiet {
		fmt.Println(p.ID)
		return
	}
	printSuccess("%s", p.Name)
	fmt.Printf("  ID: %s%s%s\n", colorCyan, p.ID, colorReset)
	fmt.Printf("  Price: %s%s%s\n", colorGreen, formatCents(p.Price), colorReset)
}

// =============================================================================
// CART COMMANDS
// =============================================================================

func runCart(args []string) {
	fs := newFlagSet("cart", "cart [options]")
	parse(fs, args)
	requireSession()

	var state cart.State
	if err := doRequest("GET", "/api/cart", nil, &state); err != nil {
		fatal("Failed to get cart: %v", err)
	}
	printCart(state)
}

func runAdd(args []string) {
	fs := newFlagSet("add", "add -id ID [-qty N] [options]")
	var id string
	var quantity int
	fs.StringVar(&id, "id", "", "Variant ID, or product ID in demo mode (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	parse(fs, args)
	requireSession()

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	var state cart.State
	body := map[string]interface{}{"id": id, "quantity": quantity}
	if err := doRequest("POST", "/api/cart/items", body, &state); err != nil {
		fatal("Failed to add item: %v", err)
	}
	printCart(state)
}

func runUpdate(args []string) {
	fs := newFlagSet("update", "update -line LINE_ID -qty N [options]")
	var lineID string
	var quantity int
	fs.StringVar(&lineID, "line", "", "Cart line ID (required)")
	fs.IntVar(&quantity, "qty", -1, "New quantity; 0 removes the line (required)")
	parse(fs, args)
	requireSession()

	if lineID == "" || quantity < 0 {
		fs.Usage()
		os.Exit(1)
	}

	var state cart.State
	body := map[string]int{"quantity": quantity}
	if err := doRequest("PATCH", "/api/cart/items/"+url.PathEscape(lineID), body, &state); err != nil {
		fatal("Failed to update line: %v", err)
	}
	printCart(state)
}

func runRemove(args []string) {
	fs := newFlagSet("remove", "remove -line LINE_ID [options]")
	var lineID string
	fs.StringVar(&lineID, "line", "", "Cart line ID (required)")
	parse(fs, args)
	requireSession()

	if lineID == "" {
		fs.Usage()
		os.Exit(1)
	}

	var state cart.State
	if err := doRequest("DELETE", "/api/cart/items/"+url.PathEscape(lineID), nil, &state); err != nil {
		fatal("Failed to remove line: %v", err)
	}
	printCart(state)
}

func runClear(args []string) {
	fs := newFlagSet("clear", "clear [options]")
	parse(fs, args)
	requireSession()

	var state cart.State
	if err := doRequest("DELETE", "/api/cart", nil, &state); err != nil {
		fatal("Failed to clear cart: %v", err)
	}
	printCart(state)
}

// =============================================================================
// CHECKOUT COMMANDS
// =============================================================================

func runCheckout(args []string) {
	fs := newFlagSet("checkout", "checkout -product ID [-qty N] [options]")
	var productID string
	var quantity int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	parse(fs, args)

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	var resp struct {
		ClientSecret string `json:"clientSecret"`
	}
	body := map[string]interface{}{
		"items": []map[string]interface{}{{"productId": productID, "quantity": quantity}},
	}
	if err := doRequest("POST", "/api/checkout", body, &resp); err != nil {
		fatal("Failed to create checkout: %v", err)
	}

	if quiet {
		fmt.Println(resp.ClientSecret)
		return
	}
	printSuccess("Checkout session created")
	fmt.Printf("  Client secret: %s%s%s\n", colorCyan, resp.ClientSecret, colorReset)
}

func runStatus(args []string) {
	fs := newFlagSet("status", "status -id SESSION_ID [options]")
	var id string
	fs.StringVar(&id, "id", "", "Checkout session ID (required)")
	parse(fs, args)

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	var resp struct {
		Status        string `json:"status"`
		CustomerEmail string `json:"customerEmail"`
	}
	if err := doRequest("GET", "/api/checkout/status?session_id="+url.QueryEscape(id), nil, &resp); err != nil {
		fatal("Failed to get checkout status: %v", err)
	}

	if quiet {
		fmt.Println(resp.Status)
		return
	}
	printSuccess("Status: %s", resp.Status)
	if resp.CustomerEmail != "" {
		fmt.Printf("  Customer: %s\n", resp.CustomerEmail)
	}
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

// checkServerVersion refuses servers with a different major version.
func checkServerVersion() error {
	var health struct {
		Version string `json:"version"`
	}
	saved := quiet
	quiet = true
	err := doRequest("GET", "/health", nil, &health)
	quiet = saved
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if !compatible(clientVersion, health.Version) {
		return fmt.Errorf("server version %s is incompatible with client %s", health.Version, clientVersion)
	}
	return nil
}

// compatible reports whether two versions share a major version.
func compatible(ours, theirs string) bool {
	if !semver.IsValid(ours) || !semver.IsValid(theirs) {
		return false
	}
	return semver.Major(ours) == semver.Major(theirs)
}

func requireSession() {
	if sessionID == "" {
		fatal("No session: pass -session or set STOREFRONT_SESSION (see 'storefrontctl session')")
	}
	if !session.ValidID(sessionID) {
		fatal("Invalid session ID %q", sessionID)
	}
}

func doRequest(method, path string, body, result interface{}) error {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, strings.TrimRight(serverURL, "/")+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if sessionID != "" {
		header, err := session.FormatHeader(sessionID)
		if err != nil {
			return fmt.Errorf("encoding session: %w", err)
		}
		req.Header.Set(session.HeaderName, header)
	}

	if !quiet {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if !quiet && verbose {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printCart(state cart.State) {
	if quiet {
		for _, it := range state.Items {
			fmt.Println(it.LineID)
		}
		return
	}

	if state.Error != "" {
		printError("%s", state.Error)
	}
	if len(state.Items) == 0 {
		printInfo("Cart is empty")
		return
	}
	for _, it := range state.Items {
		fmt.Printf("  %s%s%s  %dx %s  %s\n", colorGray, it.LineID, colorReset, it.Quantity, it.Name, formatCents(it.Price))
	}
	fmt.Printf("  %sTotal:%s %s%s%s (%d items)\n", colorBold, colorReset, colorGreen, formatCents(state.Total), colorReset, state.ItemCount)
	if state.CheckoutURL != "" {
		fmt.Printf("  Checkout: %s\n", state.CheckoutURL)
	}
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil && verbose {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}
	fmt.Println(pretty.String())
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Printf("%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func formatCents(cents int64) string {
	return "$" + model.FormatAmount(cents)
}

func setIf(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
