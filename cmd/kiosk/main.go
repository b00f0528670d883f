// Command kiosk is a terminal storefront client. It keeps the cart in
// Redis (or memory when REDIS_ADDR is unset) and drives checkout
// against a running shop server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/DPT73/urban-art-project/internal/cart"
	"github.com/DPT73/urban-art-project/internal/checkout"
	"github.com/DPT73/urban-art-project/internal/presenter"
	"github.com/DPT73/urban-art-project/internal/storage"
)

var catalog = []cart.Product{
	{ID: "print-01", Name: "Mural Print", Price: decimal.RequireFromString("24.90"), Image: "/img/mural.jpg"},
	{ID: "print-02", Name: "Stencil Series II", Price: decimal.RequireFromString("39.00"), Image: "/img/stencil.jpg"},
	{ID: "sticker-01", Name: "Sticker Pack", Price: decimal.RequireFromString("6.50"), Image: "/img/stickers.jpg"},
	{ID: "canvas-01", Name: "Alley Canvas 60x80", Price: decimal.RequireFromString("189.00"), Image: "/img/canvas.jpg"},
}

// terminalView renders the cart to stdout.
type terminalView struct{}

func (terminalView) RenderBadge(count int) {
	fmt.Printf("cart [%d]\n", count)
}

func (terminalView) RenderCart(view presenter.CartView) {
	if view.Empty {
		fmt.Println("  (cart is empty)")
		return
	}
	for _, line := range view.Lines {
		fmt.Printf("  %-24s x%-3d %10s\n", line.Name, line.Quantity, line.Subtotal)
	}
	fmt.Printf("  %-28s %10s\n", "total", view.Total)
}

func (terminalView) ShowNotification(n presenter.Notification) {
	fmt.Printf("  >> [%s] %s\n", n.Severity, n.Message)
}

func (terminalView) DismissNotification(id string) {}

// terminalNavigator prints the hosted payment URL instead of opening a
// browser.
type terminalNavigator struct{}

func (terminalNavigator) Navigate(url string) {
	fmt.Printf("\nOpen this URL to pay:\n  %s\n\n", url)
}

type terminalNotifier struct{}

func (terminalNotifier) Notify(message string, severity presenter.Severity) {
	fmt.Printf("  >> [%s] %s\n", severity, message)
}

func main() {
	serverURL := getEnv("SHOP_URL", "http://localhost:4242")
	redisAddr := os.Getenv("REDIS_ADDR")

	ctx := context.Background()

	var store storage.Storage
	if redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("redis unreachable", "addr", redisAddr, "error", err)
			os.Exit(1)
		}
		store = storage.NewRedisStorage(client)
	} else {
		store = storage.NewMemoryStorage()
	}

	cartStore := cart.NewStore(store)
	view := terminalView{}
	pres := presenter.New(cartStore, view)

	if err := cartStore.Load(ctx); err != nil {
		slog.Warn("failed to load saved cart, starting empty", "error", err)
	}

	checkoutClient := checkout.NewClient(
		&http.Client{Timeout: 30 * time.Second},
		serverURL,
		terminalNavigator{},
		terminalNotifier{},
	)

	fmt.Println("Urban Art Shop kiosk. Commands: list, add <id>, inc <id>, dec <id>, rm <id>, cart, clear, checkout, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd := fields[0]
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch cmd {
		case "list":
			for _, p := range catalog {
				fmt.Printf("  %-12s %-24s %8s €\n", p.ID, p.Name, p.Price.StringFixed(2))
			}
		case "add":
			product, ok := findProduct(arg)
			if !ok {
				fmt.Printf("  unknown product %q\n", arg)
				continue
			}
			pres.Add(ctx, product)
		case "inc":
			pres.Increment(ctx, arg)
		case "dec":
			pres.Decrement(ctx, arg)
		case "rm":
			pres.Remove(ctx, arg)
		case "cart":
			pres.Render()
		case "clear":
			cartStore.Clear(ctx)
		case "checkout":
			if err := checkoutClient.InitiateCheckout(ctx, cartStore.Items()); err != nil {
				slog.Debug("checkout did not complete", "error", err)
			}
		case "quit", "exit":
			return
		default:
			fmt.Printf("  unknown command %q\n", cmd)
		}
	}
}

func findProduct(id string) (cart.Product, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return cart.Product{}, false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
