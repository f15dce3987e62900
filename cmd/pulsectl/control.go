package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskaudio/pulse"
	"github.com/deskaudio/pulse/proto"
)

func volumeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "volume <sink|source|sink-input|source-output> <id> <percent>...",
		Short: "Set the volume of a device or stream",
		Long: `Set the volume of a device or stream in percent of the normal volume.
One value sets every channel; otherwise give one value per channel.`,
		Example: `  pulsectl volume sink @DEFAULT_SINK@ 40
  pulsectl volume sink-input 12 100% 80%`,
		Args:      cobra.MinimumNArgs(3),
		ValidArgs: []string{"sink", "source", "sink-input", "source-output"},
		RunE: func(cmd *cobra.Command, args []string) error {
			percents, err := parsePercents(args[2:])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				if err := setVolume(ctx, c, args[0], args[1], percents); err != nil {
					return err
				}
				a.out.success("%s %s volume set", args[0], args[1])
				return nil
			})
		},
	}
}

func setVolume(ctx context.Context, c *pulse.Client, kind, id string, percents []float64) error {
	switch kind {
	case "sink":
		s, err := c.Sink(ctx, proto.ParseSelector(id))
		if err != nil {
			return err
		}
		cvol, err := percentVolumes(len(s.Info().ChannelVolumes), percents)
		if err != nil {
			return err
		}
		return c.SetSinkVolume(ctx, s.Selector(), cvol)
	case "source":
		s, err := c.Source(ctx, proto.ParseSelector(id))
		if err != nil {
			return err
		}
		cvol, err := percentVolumes(len(s.Info().ChannelVolumes), percents)
		if err != nil {
			return err
		}
		return c.SetSourceVolume(ctx, s.Selector(), cvol)
	case "sink-input":
		idx, err := parseIndex(id)
		if err != nil {
			return err
		}
		in, err := c.SinkInput(ctx, idx)
		if err != nil {
			return err
		}
		cvol, err := percentVolumes(len(in.ChannelVolumes), percents)
		if err != nil {
			return err
		}
		return c.SetSinkInputVolume(ctx, idx, cvol)
	case "source-output":
		idx, err := parseIndex(id)
		if err != nil {
			return err
		}
		out, err := c.SourceOutput(ctx, idx)
		if err != nil {
			return err
		}
		cvol, err := percentVolumes(len(out.ChannelVolumes), percents)
		if err != nil {
			return err
		}
		return c.SetSourceOutputVolume(ctx, idx, cvol)
	}
	return fmt.Errorf("unknown kind %q, expected sink, source, sink-input or source-output", kind)
}

func muteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "mute <sink|source|sink-input|source-output> <id> <on|off>",
		Short:     "Mute or unmute a device or stream",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"sink", "source", "sink-input", "source-output"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mute, err := parseSwitch(args[2])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				var err error
				switch args[0] {
				case "sink":
					err = c.SetSinkMute(ctx, proto.ParseSelector(args[1]), mute)
				case "source":
					err = c.SetSourceMute(ctx, proto.ParseSelector(args[1]), mute)
				case "sink-input", "source-output":
					idx, perr := parseIndex(args[1])
					if perr != nil {
						return perr
					}
					if args[0] == "sink-input" {
						err = c.SetSinkInputMute(ctx, idx, mute)
					} else {
						err = c.SetSourceOutputMute(ctx, idx, mute)
					}
				default:
					return fmt.Errorf("unknown kind %q", args[0])
				}
				if err != nil {
					return err
				}
				a.out.success("%s %s muted: %s", args[0], args[1], mark(mute))
				return nil
			})
		},
	}
}

func suspendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "suspend <sink|source> <id> <on|off>",
		Short:     "Suspend or resume a device",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"sink", "source"},
		RunE: func(cmd *cobra.Command, args []string) error {
			suspend, err := parseSwitch(args[2])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				sel := proto.ParseSelector(args[1])
				var err error
				switch args[0] {
				case "sink":
					err = c.SuspendSink(ctx, sel, suspend)
				case "source":
					err = c.SuspendSource(ctx, sel, suspend)
				default:
					return fmt.Errorf("unknown kind %q, expected sink or source", args[0])
				}
				if err != nil {
					return err
				}
				a.out.success("%s %s suspended: %s", args[0], args[1], mark(suspend))
				return nil
			})
		},
	}
}

func defaultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "default <sink|source> <name>",
		Short:     "Set the default sink or source",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"sink", "source"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				var err error
				switch args[0] {
				case "sink":
					err = c.SetDefaultSink(ctx, args[1])
				case "source":
					err = c.SetDefaultSource(ctx, args[1])
				default:
					return fmt.Errorf("unknown kind %q, expected sink or source", args[0])
				}
				if err != nil {
					return err
				}
				a.out.success("default %s is %s", args[0], args[1])
				return nil
			})
		},
	}
}

func killCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "kill <client|sink-input|source-output> <index>",
		Short:     "Disconnect a client or stream",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"client", "sink-input", "source-output"},
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				var err error
				switch args[0] {
				case "client":
					err = c.KillClient(ctx, idx)
				case "sink-input":
					err = c.KillSinkInput(ctx, idx)
				case "source-output":
					err = c.KillSourceOutput(ctx, idx)
				default:
					return fmt.Errorf("unknown kind %q, expected client, sink-input or source-output", args[0])
				}
				if err != nil {
					return err
				}
				a.out.success("%s %d killed", args[0], idx)
				return nil
			})
		},
	}
}

func moveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "move <sink-input|source-output> <index> <destination>",
		Short:     "Move a stream to another device",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"sink-input", "source-output"},
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			dest := proto.ParseSelector(args[2])
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				var err error
				switch args[0] {
				case "sink-input":
					err = c.MoveSinkInput(ctx, idx, dest)
				case "source-output":
					err = c.MoveSourceOutput(ctx, idx, dest)
				default:
					return fmt.Errorf("unknown kind %q, expected sink-input or source-output", args[0])
				}
				if err != nil {
					return err
				}
				a.out.success("%s %d moved to %s", args[0], idx, dest)
				return nil
			})
		},
	}
}

func portCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "port <sink|source> <id> <port>",
		Short:     "Switch the active port of a device",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"sink", "source"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				sel := proto.ParseSelector(args[1])
				var err error
				switch args[0] {
				case "sink":
					err = c.SetSinkPort(ctx, sel, args[2])
				case "source":
					err = c.SetSourcePort(ctx, sel, args[2])
				default:
					return fmt.Errorf("unknown kind %q, expected sink or source", args[0])
				}
				if err != nil {
					return err
				}
				a.out.success("%s %s port is %s", args[0], args[1], args[2])
				return nil
			})
		},
	}
}

func profileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <card> <profile>",
		Short: "Activate a card profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				if err := c.SetCardProfile(ctx, proto.ParseSelector(args[0]), args[1]); err != nil {
					return err
				}
				a.out.success("card %s profile is %s", args[0], args[1])
				return nil
			})
		},
	}
}

func latencyOffsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "latency-offset <card> <port> <offset>",
		Short: "Set the latency offset of a card port",
		Long: `Set the latency offset of a card port. The offset is in microseconds
unless it has a unit, such as 15ms.`,
		Example: `  pulsectl latency-offset 0 analog-output-speaker 15ms
  pulsectl latency-offset 0 analog-output-speaker -- -1500`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseMicroseconds(args[2])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c *pulse.Client) error {
				if err := c.SetPortLatencyOffset(ctx, proto.ParseSelector(args[0]), args[1], offset); err != nil {
					return err
				}
				a.out.success("card %s port %s latency offset is %dus", args[0], args[1], offset)
				return nil
			})
		},
	}
}
