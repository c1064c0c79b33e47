// Command zapstore is a terminal client for the Zapstore app catalog:
// browse apps, inspect releases, read comment threads and send zaps.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	zapstore "github.com/zapstore/zapstore-go"
)

var debug bool

// Config carries the environment-driven settings, prefixed ZAPSTORE_.
type Config struct {
	CachePath          string        `envconfig:"CACHE_PATH"`
	Nsec               string        `envconfig:"NSEC"`
	FetchTimeout       time.Duration `envconfig:"FETCH_TIMEOUT" default:"8s"`
	CorrelationTimeout time.Duration `envconfig:"CORRELATION_TIMEOUT" default:"2m"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zapstore",
		Short: "Browse the Zapstore app catalog and zap its publishers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				_ = os.Setenv("ZAPSTORE_DEBUG", "true")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newAppsCmd())
	rootCmd.AddCommand(newAppCmd())
	rootCmd.AddCommand(newReleaseCmd())
	rootCmd.AddCommand(newZapsCmd())
	rootCmd.AddCommand(newCommentsCmd())
	rootCmd.AddCommand(newCommentCmd())
	rootCmd.AddCommand(newZapCmd())
	rootCmd.AddCommand(newStacksCmd())

	return rootCmd
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("zapstore", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func newClient(needSigner bool) (*zapstore.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts := []zapstore.Option{
		zapstore.WithLogger(log.Logger),
		zapstore.WithFetchTimeout(cfg.FetchTimeout),
		zapstore.WithCorrelationTimeout(cfg.CorrelationTimeout),
	}
	if cfg.CachePath != "" {
		opts = append(opts, zapstore.WithCachePath(cfg.CachePath))
	}
	if cfg.Nsec != "" {
		opts = append(opts, zapstore.WithSignerKey(cfg.Nsec))
	} else if needSigner {
		return nil, fmt.Errorf("ZAPSTORE_NSEC must be set for this command")
	}
	return zapstore.New(opts...)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// resolveApp turns a slug argument into a full app record.
func resolveApp(ctx context.Context, c *zapstore.Client, slug string) (*zapstore.App, error) {
	var app *zapstore.App
	if pubkey, dTag, err := zapstore.ResolveAppSlug(slug); err == nil {
		app = c.FetchApp(ctx, pubkey, dTag)
	} else {
		// Not an naddr or npub slug; treat it as a bare app identifier.
		app = c.FetchAppByDTag(ctx, slug)
	}
	if app == nil {
		return nil, fmt.Errorf("app %q not found", slug)
	}
	return app, nil
}

func newAppsCmd() *cobra.Command {
	var limit int
	var search, author string

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List catalog apps, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			q := zapstore.AppQuery{Limit: limit, Search: search}
			if author != "" {
				q.Authors = []string{author}
			}
			start := time.Now()
			apps := c.FetchApps(cmd.Context(), q)
			log.Debug().Int("count", len(apps)).Dur("elapsed", time.Since(start)).Msg("apps fetched")
			return printJSON(apps)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 12, "Maximum apps to list")
	cmd.Flags().StringVar(&search, "search", "", "Full-text search term")
	cmd.Flags().StringVar(&author, "author", "", "Publisher pubkey (hex)")

	return cmd
}

func newAppCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app <slug>",
		Short: "Show one app with its latest version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			app, err := resolveApp(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			version := c.FetchAppVersion(cmd.Context(), *app)
			return printJSON(struct {
				App     zapstore.App `json:"app"`
				Version string       `json:"version,omitempty"`
			}{App: *app, Version: version})
		},
	}
	return cmd
}

func newReleaseCmd() *cobra.Command {
	var skipCache bool

	cmd := &cobra.Command{
		Use:   "release <slug>",
		Short: "Show an app's latest release and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			app, err := resolveApp(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			rel := c.FetchLatestRelease(cmd.Context(), *app, skipCache)
			if rel == nil {
				return fmt.Errorf("no release found for %q", args[0])
			}
			files := c.FetchFileMetadata(cmd.Context(), rel.EventRefs)
			return printJSON(struct {
				Release zapstore.Release        `json:"release"`
				Files   []zapstore.FileMetadata `json:"files,omitempty"`
			}{Release: *rel, Files: files})
		},
	}

	cmd.Flags().BoolVar(&skipCache, "fresh", false, "Bypass the local cache")

	return cmd
}

func newZapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zaps <slug>",
		Short: "Show zap receipts and totals for an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			app, err := resolveApp(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			var fileIDs []string
			if rel := c.FetchLatestRelease(cmd.Context(), *app, false); rel != nil {
				fileIDs = rel.EventRefs
			}
			summary := c.FetchAppAndFileZaps(cmd.Context(), *app, fileIDs)
			return printJSON(summary)
		},
	}
	return cmd
}

func newCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments <slug>",
		Short: "Show the comment thread for an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			app, err := resolveApp(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			comments := c.FetchComments(cmd.Context(), app.PubKey, app.DTag)
			return printJSON(comments)
		},
	}
	return cmd
}

func newCommentCmd() *cobra.Command {
	var message, version, replyTo string

	cmd := &cobra.Command{
		Use:   "comment <slug>",
		Short: "Publish a comment on an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(true)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			app, err := resolveApp(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			var parent *zapstore.Comment
			if replyTo != "" {
				for _, cm := range c.FetchComments(cmd.Context(), app.PubKey, app.DTag) {
					if cm.ID == replyTo {
						parent = &cm
						break
					}
				}
				if parent == nil {
					return fmt.Errorf("parent comment %q not found", replyTo)
				}
			}
			if version == "" {
				version = c.FetchAppVersion(cmd.Context(), *app)
			}
			ev, err := c.PublishComment(cmd.Context(), *app, message, version, parent)
			if err != nil {
				return err
			}
			fmt.Printf("Comment published: %s\n", ev.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "Comment text (required)")
	cmd.Flags().StringVar(&version, "version", "", "App version the comment refers to (default: latest)")
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "Comment event id to reply to")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newZapCmd() *cobra.Command {
	var amount int64
	var comment string
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "zap <slug>",
		Short: "Send a lightning zap to an app's publisher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(true)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			app, err := resolveApp(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			pending, err := c.Zap(cmd.Context(), zapstore.ZapTargetForApp(*app), amount, comment)
			if err != nil {
				return err
			}
			defer pending.Cancel()

			fmt.Printf("Pay this invoice, then wait for the receipt:\n%s\n", pending.Invoice)

			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case m, ok := <-pending.Receipts():
				if !ok {
					return fmt.Errorf("zap attempt cancelled before a receipt arrived")
				}
				fmt.Printf("Receipt confirmed (%s): %d sats from %s\n",
					m.Rule, m.Receipt.AmountSats, m.Receipt.SenderNpub)
				return nil
			case <-timer.C:
				return fmt.Errorf("no receipt within %v; the payment may still settle later", wait)
			}
		},
	}

	cmd.Flags().Int64Var(&amount, "amount", 21, "Amount in sats")
	cmd.Flags().StringVar(&comment, "comment", "", "Public zap comment")
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Minute, "How long to wait for the receipt")

	return cmd
}

func newStacksCmd() *cobra.Command {
	var limit int
	var resolve bool

	cmd := &cobra.Command{
		Use:   "stacks",
		Short: "List curated app stacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stacks := c.FetchAppStacks(cmd.Context(), limit, nil)
			if !resolve {
				return printJSON(stacks)
			}
			type resolved struct {
				Stack zapstore.AppStack `json:"stack"`
				Apps  []zapstore.App    `json:"apps"`
			}
			out := make([]resolved, 0, len(stacks))
			for _, s := range stacks {
				out = append(out, resolved{Stack: s, Apps: c.ResolveStackApps(cmd.Context(), s)})
			}
			return printJSON(out)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 12, "Maximum stacks to list")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Also fetch the apps each stack references")

	return cmd
}
