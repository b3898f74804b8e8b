package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/awolverp/xuiclient/internal/config"
	"github.com/awolverp/xuiclient/internal/helpers"
	"github.com/awolverp/xuiclient/internal/services"
)

func main() {
	// Setup logger
	logger := setupLogger()

	// Setup context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Fatal(err)
	}
}

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	var panel *services.PanelService

	root := &cobra.Command{
		Use:           "xuictl",
		Short:         "Manage XUI panel inbounds from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
				logger.SetLevel(level)
			}
			panel, err = services.NewPanelService(cfg, logger)
			return err
		},
	}

	root.AddCommand(newStatusCmd(&panel))
	root.AddCommand(newInboundsCmd(&panel))
	root.AddCommand(newLinkCmd(&panel, logger))
	root.AddCommand(newTrafficCmd(&panel))
	return root
}

func newTrafficCmd(panel **services.PanelService) *cobra.Command {
	return &cobra.Command{
		Use:   "traffic",
		Short: "Show per-client traffic usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			inbounds, err := (*panel).GetInbounds(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(helpers.FormatTrafficReport(inbounds))
			return nil
		},
	}
}

func newStatusCmd(panel **services.PanelService) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the panel server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := (*panel).GetStatus(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("xray:    %s (%s)\n", status.XRay.State, status.XRay.Version)
			if status.XRay.ErrorMsg != "" {
				fmt.Printf("error:   %s\n", status.XRay.ErrorMsg)
			}
			fmt.Printf("uptime:  %s\n", (time.Duration(status.Uptime) * time.Second).String())
			fmt.Printf("cpu:     %.1f%%\n", status.CPU)
			fmt.Printf("mem:     %s / %s\n", formatBytes(status.Mem.Current.Int64()), formatBytes(status.Mem.Total.Int64()))
			fmt.Printf("disk:    %s / %s\n", formatBytes(status.Disk.Current.Int64()), formatBytes(status.Disk.Total.Int64()))
			fmt.Printf("conns:   %d tcp, %d udp\n", status.TCPCount.Int64(), status.UDPCount.Int64())
			fmt.Printf("traffic: %s sent, %s received\n", formatBytes(status.NetTraffic.Sent.Int64()), formatBytes(status.NetTraffic.Recv.Int64()))
			return nil
		},
	}
}

func newInboundsCmd(panel **services.PanelService) *cobra.Command {
	return &cobra.Command{
		Use:   "inbounds",
		Short: "List the inbounds configured on the panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			inbounds, err := (*panel).GetInbounds(cmd.Context())
			if err != nil {
				return err
			}

			for _, in := range inbounds {
				state := "enabled"
				if !in.Enable {
					state = "disabled"
				}
				fmt.Printf("%4d  %-14s port %-6d %-8s %s  up %s down %s\n",
					in.ID, in.Protocol, in.Port, state, in.Remark,
					formatBytes(in.Up), formatBytes(in.Down))
			}
			return nil
		},
	}
}

func newLinkCmd(panel **services.PanelService, logger *logrus.Logger) *cobra.Command {
	var (
		clientIndex int
		qrPath      string
	)

	cmd := &cobra.Command{
		Use:   "link <inbound-id>",
		Short: "Print the access link for an inbound client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid inbound id %q", args[0])
			}

			link, err := (*panel).AccessLink(cmd.Context(), id, clientIndex)
			if err != nil {
				return err
			}
			fmt.Println(link)

			if qrPath != "" {
				qr, err := services.NewQRService(logger).GenerateQR(link)
				if err != nil {
					return err
				}
				if err := os.WriteFile(qrPath, qr, 0o644); err != nil {
					return fmt.Errorf("failed to write QR code: %w", err)
				}
				logger.Infof("Wrote QR code to %s", qrPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&clientIndex, "client", 0, "client index inside the inbound")
	cmd.Flags().StringVar(&qrPath, "qr", "", "also write the link as a QR code PNG to this path")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// setupLogger sets up the logger
func setupLogger() *logrus.Logger {
	logger := logrus.New()

	// Set log level from environment variable or default to info
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Printf("Invalid log level %s, defaulting to info", logLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	// Set formatter
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}
