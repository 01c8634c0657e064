// Command diaryctl runs the diary commands from a terminal, using the same
// configuration as the Lambda functions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	cfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adiazny/slack-diary-lambda/internal/pkg/calendar"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/config"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/diary"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/slack"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/store"
)

var (
	envFile  string
	dryRun   bool
	verbose  bool
	remindOn string
)

var rootCmd = &cobra.Command{
	Use:   "diaryctl",
	Short: "Write, read and remind diary entries from the terminal",
	Long: `diaryctl sends the same commands Slack sends to the diary functions,
signed with the configured token, channel and user. Settings come from the
environment and from an optional .env file.`,
	SilenceUsage: true,
}

var writeCmd = &cobra.Command{
	Use:   "write DATE [TEXT...]",
	Short: "Store TEXT as the entry for DATE",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, envVars, err := buildService(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		values := signed(envVars)
		values.Set("text", args[0]+" "+strings.Join(args[1:], " "))

		resp, err := svc.Write(cmd.Context(), events.APIGatewayProxyRequest{Body: values.Encode()})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Body)

		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read DATE",
	Short: "Print the entry for DATE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, envVars, err := buildService(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		values := signed(envVars)
		params := map[string]string{"text": args[0]}
		for k := range values {
			params[k] = values.Get(k)
		}

		resp, err := svc.Read(cmd.Context(), events.APIGatewayProxyRequest{QueryStringParameters: params})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Body)

		return nil
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send the anniversary reminder now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, envVars, err := buildService(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		loc, err := envVars.Location()
		if err != nil {
			return err
		}

		today := calendar.Today(loc)

		if remindOn != "" {
			today, err = calendar.ParseDate(remindOn)
			if err != nil {
				return err
			}
		}

		return svc.RemindOn(cmd.Context(), today)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "use an in-memory store and print reminders instead of posting them")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	remindCmd.Flags().StringVar(&remindOn, "date", "", "remind as if today were this date (YYYY-MM-DD)")

	rootCmd.AddCommand(writeCmd, readCmd, remindCmd)
}

// printer is a Notifier that writes the webhook payload to out.
type printer struct {
	out io.Writer
}

func (p printer) Post(_ context.Context, msg slack.Message) error {
	data, err := msg.Payload()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(p.out, string(data))

	return err
}

func buildService(ctx context.Context, out io.Writer) (*diary.Service, *config.EnvironmentVariables, error) {
	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("error loading %s %w", envFile, err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	log := logrus.NewEntry(logger).WithField("component", "diaryctl")

	envVars, err := config.Parse()
	if err != nil {
		return nil, nil, err
	}

	awsConfig, err := cfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading AWS config %w", err)
	}

	svc, err := diary.New(log, envVars, awsConfig)
	if err != nil {
		return nil, nil, err
	}

	if dryRun {
		svc.Store = store.NewMemory()
		svc.Notifier = printer{out: out}
		svc.SNS = nil
	}

	return svc, envVars, nil
}

func signed(envVars *config.EnvironmentVariables) url.Values {
	values := url.Values{}
	values.Set("token", envVars.SlashCommandToken)
	values.Set("channel_id", envVars.ValidChannelID)
	values.Set("user_id", envVars.ValidUserID)

	return values
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
