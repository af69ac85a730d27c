package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	"work-allocation/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var purgeFrom, purgeTo string

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete plans created in a date range, with their assignments and presences",
	RunE:  runPurge,
}

func init() {
	purgeCmd.Flags().StringVar(&purgeFrom, "from", "", "first creation date, YYYY-MM-DD or RFC3339")
	purgeCmd.Flags().StringVar(&purgeTo, "to", "", "last creation date, YYYY-MM-DD covers the whole day")
	_ = purgeCmd.MarkFlagRequired("from")
	_ = purgeCmd.MarkFlagRequired("to")
}

func runPurge(cmd *cobra.Command, args []string) error {
	from, err := parseBound(purgeFrom, false)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseBound(purgeTo, true)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Без подписчиков: CLI работает отдельно от сервера
	reconciler := service.NewReconciler(store, nil, service.WithLogger(logger), service.WithRoom(cfg.EventRoom))
	deleted, err := reconciler.DeletePlansInRange(ctx, from, to)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"from":    from.Format(time.RFC3339),
		"to":      to.Format(time.RFC3339),
		"deleted": deleted,
	}).Info("Plans purged")
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d plan(s)\n", deleted)
	return nil
}

// parseBound принимает дату или RFC3339. Дата без времени для верхней
// границы означает конец дня.
func parseBound(raw string, endOfDay bool) (time.Time, error) {
	if d, err := time.ParseInLocation(time.DateOnly, raw, time.UTC); err == nil {
		if endOfDay {
			return d.Add(24*time.Hour - time.Nanosecond), nil
		}
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t.UTC(), nil
}
