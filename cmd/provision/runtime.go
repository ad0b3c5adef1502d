package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"profile-agent/handler"
	"profile-agent/internal/app"
	"profile-agent/internal/domain"
	"profile-agent/internal/integrations/paramstore"
	"profile-agent/internal/responder"
)

func settingsFlags(cmd *cobra.Command, s *app.Settings) {
	f := cmd.Flags()
	f.StringVar(&s.ParamPrefix, "param-prefix", envOr("PARAM_PREFIX", "/profile-agent"), "SSM parameter prefix")
	f.StringVar(&s.Provider, "provider", envOr("LLM_PROVIDER", app.ProviderOpenAI), "text generation provider (openai|gemini)")
	f.DurationVar(&s.ReplyTimeout, "reply-timeout", 8*time.Second, "text generation timeout")
}

func newSimulateCmd(g *globalOptions) *cobra.Command {
	var (
		settings  app.Settings
		profileID string
		message   string
		tone      string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Print the reply a stored synthetic profile would send",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var override domain.Personality
			if tone != "" {
				p, err := domain.ParsePersonality(tone)
				if err != nil {
					return err
				}
				override = p
			}
			store, closeDB, err := openStore(ctx, g.dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			profile, err := store.GetProfile(ctx, profileID)
			if err != nil {
				return fmt.Errorf("load profile %s: %w", profileID, err)
			}
			if !profile.ResponderEligible() {
				return errors.New("profile is not eligible for automatic replies")
			}
			personality := *profile.Personality
			if override != "" {
				personality = override
			}

			awsCfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				return fmt.Errorf("load AWS config: %w", err)
			}
			ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
			resp, err := app.NewResponder(ctx, ps, settings, rng, g.logger)
			if err != nil {
				return err
			}

			reply := resp.GenerateReply(ctx, responder.Request{
				Personality: personality,
				Name:        profile.Identity.Name,
				Age:         profile.Identity.Age,
				Bio:         profile.Identity.Bio,
				Message:     message,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", profile.Identity.Name, personality, reply)
			return nil
		},
	}
	settingsFlags(cmd, &settings)
	cmd.Flags().StringVar(&profileID, "profile", "", "synthetic profile id")
	cmd.Flags().StringVar(&message, "message", "hola! qué tal?", "inbound message")
	cmd.Flags().StringVar(&tone, "as", "", "override the stored personality (coqueta|seria|divertida|picante|romantica)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func newServeCmd(g *globalOptions) *cobra.Command {
	var (
		settings app.Settings
		addr     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the autoreply endpoint and corpus photos over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			awsCfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				return fmt.Errorf("load AWS config: %w", err)
			}
			autoReply, err := app.NewAutoReply(ctx, awsCfg, settings, g.logger)
			if err != nil {
				return err
			}
			h, err := handler.NewHandler(autoReply, g.logger.Named("handler"))
			if err != nil {
				return err
			}

			if !g.debug {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           handler.NewRouter(h, g.staticPrefix, g.root),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serve(ctx, srv, g.logger)
		},
	}
	settingsFlags(cmd, &settings)
	f := cmd.Flags()
	f.StringVar(&addr, "addr", envOr("ADDR", ":8080"), "listen address")
	f.StringVar(&settings.StateTable, "table", envOr("STATE_TABLE", "profile-agent-threads"), "DynamoDB thread table")
	f.StringVar(&settings.DynamoEndpoint, "dynamo-endpoint", envOr("DYNAMO_ENDPOINT", ""), "DynamoDB endpoint override (e.g. DynamoDB Local)")
	f.IntVar(&settings.MaxContextItems, "max-context", envInt("MAX_CONTEXT_ITEMS", 20), "history turns passed to the responder")
	f.DurationVar(&settings.MinReplyDelay, "min-delay", 5*time.Second, "minimum reply delay")
	f.DurationVar(&settings.MaxReplyDelay, "max-delay", 30*time.Second, "maximum reply delay")
	return cmd
}

func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
