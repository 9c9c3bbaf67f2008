package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/notify"
	"sentinel-cctv/be/notify/feed"
)

// notify_tail connects to the notification channel and prints every
// notification and refresh update it receives.
func main() {
	url := flag.StringP("url", "u", "ws://localhost:5000/ws", "Notification channel URL")
	token := flag.StringP("token", "t", "", "Bearer token appended as ?token=")
	flag.Parse()

	// reconnect logs go to the file only; stdout carries the feed
	opts := logger.DefaultOptions()
	opts.Production = true
	if err := logger.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	target := *url
	if *token != "" {
		target += "?token=" + *token
	}

	f := feed.New(
		feed.WithToast(func(n notify.Notification) {
			fmt.Printf("!! [%s] %s: %s\n", n.Priority, n.Title, n.Message)
		}),
		feed.WithUpdate(func(kind string, payload []byte) {
			fmt.Printf("~~ refresh %s (%d bytes)\n", kind, len(payload))
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go printFeed(ctx, f)

	client := feed.NewClient(target, f)
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().Error("notification client stopped", zap.Error(err))
		os.Exit(1)
	}
}

// printFeed prints non-urgent notifications as they land in the feed.
func printFeed(ctx context.Context, f *feed.Feed) {
	seen := make(map[string]bool)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			items := f.Items()
			for i := len(items) - 1; i >= 0; i-- {
				n := items[i]
				if seen[n.ID] || n.Priority.Urgent() {
					seen[n.ID] = true
					continue
				}
				seen[n.ID] = true
				fmt.Printf("-- [%s] %s: %s (%s)\n", n.Category, n.Title, n.Message, n.Timestamp.Format(time.RFC3339))
			}
		}
	}
}
