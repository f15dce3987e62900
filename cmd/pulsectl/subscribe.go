package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskaudio/pulse"
	"github.com/deskaudio/pulse/internal/bridge"
	"github.com/deskaudio/pulse/proto"
)

func subscribeCmd(a *app) *cobra.Command {
	var (
		facilities string
		natsURL    string
		subject    string
	)

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Print server events as they happen",
		Long: `Print an event whenever the server creates, changes or removes an
object. With --nats-url every event is also published on NATS, on the
subject <prefix>.<facility>.<type>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mask := proto.SubscriptionMaskAll
			if facilities != "" {
				m, err := proto.ParseSubscriptionMask(facilities)
				if err != nil {
					return err
				}
				mask = m
			}
			if natsURL != "" {
				a.cfg.NATS.URL = natsURL
			}
			if subject != "" {
				a.cfg.NATS.SubjectPrefix = subject
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			unregister := c.Observe(a.printEvent)
			defer unregister()

			if a.cfg.NATS.URL != "" {
				pub, err := bridge.DialNATS(bridge.NATSOptions{
					URL:           a.cfg.NATS.URL,
					Name:          "pulsectl",
					SubjectPrefix: a.cfg.NATS.SubjectPrefix,
				}, a.log)
				if err != nil {
					return err
				}
				defer pub.Close()
				defer c.Observe(pub.Publish)()
				a.log.Info("publishing events", "url", a.cfg.NATS.URL, "prefix", a.cfg.NATS.SubjectPrefix)
			}

			subCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
			err = c.Subscribe(subCtx, mask)
			cancel()
			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return nil
			case <-c.Done():
				return c.Err()
			}
		},
	}

	cmd.Flags().StringVarP(&facilities, "facilities", "f", "", "comma separated facilities, such as sink,sink-input (default all)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "publish events to this NATS server")
	cmd.Flags().StringVar(&subject, "nats-subject", "", "subject prefix for published events (default "+bridge.DefaultSubjectPrefix+")")

	return cmd
}

// printEvent writes one event per line: a JSON object, a YAML document or
// a text line.
func (a *app) printEvent(ev pulse.Event) {
	w := a.out.w
	switch a.out.format {
	case "json":
		b, err := json.Marshal(ev)
		if err != nil {
			a.log.Error("encode event", "error", err)
			return
		}
		fmt.Fprintf(w, "%s\n", b)
	case "yaml":
		fmt.Fprintln(w, "---")
		if err := a.out.print(ev, nil); err != nil {
			a.log.Error("encode event", "error", err)
		}
	default:
		fmt.Fprintf(w, "%s %s #%s\n", a.out.paint("36", ev.Type), ev.Facility, ev.Index)
	}
}
